package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/flash-wallet/flash_ledger/internal/logging"
)

func TestHandlerEntry(t *testing.T) {
	journal := NewJournal(NewInMemory(), logging.Discard())
	draft := NewDraft("handler test").
		Debit(ExternalCash(), usd(t, 500), Metadata{TransactionType: TypeTopup}).
		Credit(Ibex("w1"), usd(t, 500), Metadata{TransactionType: TypeTopup})
	entry, err := journal.Post(context.Background(), *draft)
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	app := fiber.New()
	app.Get("/journal/:entryId", NewHandler(journal).Entry)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/journal/"+entry.ID, nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	var got Entry
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != entry.ID || len(got.Lines) != 2 {
		t.Fatalf("unexpected entry %+v", got)
	}

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/journal/missing", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.StatusCode)
	}
}

func TestHandlerEntryStoreDown(t *testing.T) {
	journal := NewJournal(NewUnavailableStore(errors.New("connection refused")), logging.Discard())
	app := fiber.New()
	app.Get("/journal/:entryId", NewHandler(journal).Entry)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/journal/x", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.StatusCode)
	}
}
