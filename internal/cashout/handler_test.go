package cashout

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newApp(f fixture) *fiber.App {
	app := fiber.New()
	h := NewHandler(f.svc)
	app.Post("/cashouts", h.Record)
	app.Post("/settled", h.Settled)
	return app
}

func post(t *testing.T, app *fiber.App, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	return resp.StatusCode, decoded
}

func TestHandlerRecordAndSettle(t *testing.T) {
	f := newFixture(t)
	app := newApp(f)

	status, body := post(t, app, "/cashouts", `{
		"user_wallet_id": "user-1",
		"ibex_trx": {"payment_hash": "h1", "usd_amount": ["10000", "USD"]},
		"liability": {"usd": ["9800", "USD"], "jmd": ["1568000", "JMD"]},
		"flash_fee": ["200", "USD"]
	}`)
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	trxID, _ := body["ledger_trx_id"].(string)
	if trxID == "" {
		t.Fatal("expected ledger_trx_id in response")
	}

	settleBody := `{"ledger_trx_id": "` + trxID + `", "payment_details": {"sent": ["1568000", "JMD"], "external_id": "bank-9"}}`
	status, body = post(t, app, "/settled", settleBody)
	if status != fiber.StatusOK || body["duplicate"] != false {
		t.Fatalf("expected settled, got %d %v", status, body)
	}

	status, body = post(t, app, "/settled", settleBody)
	if status != fiber.StatusOK || body["duplicate"] != true {
		t.Fatalf("expected duplicate, got %d %v", status, body)
	}
}

func TestHandlerErrors(t *testing.T) {
	f := newFixture(t)
	app := newApp(f)

	cases := []struct {
		name, path, body string
		status           int
	}{
		{"wrong currency in tuple", "/cashouts",
			`{"user_wallet_id": "u", "ibex_trx": {"usd_amount": ["100", "JMD"]}}`, fiber.StatusBadRequest},
		{"unbalanced offer", "/cashouts",
			`{"user_wallet_id": "u", "ibex_trx": {"usd_amount": ["100", "USD"]}, "liability": {"usd": ["90", "USD"]}}`,
			fiber.StatusUnprocessableEntity},
		{"unknown trx", "/settled",
			`{"ledger_trx_id": "nope", "payment_details": {"sent": ["100", "USD"]}}`, fiber.StatusNotFound},
		{"missing trx id", "/settled", `{}`, fiber.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if status, _ := post(t, app, tc.path, tc.body); status != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, status)
			}
		})
	}
}
