package funding

// Webhook payloads as each provider sends them. Amounts arrive as major-unit
// decimal strings.

type fygaroPayload struct {
	TransactionID string `json:"transaction_id"`
	Reference     string `json:"custom_reference"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Fee           string `json:"fee"`
}

type paypalAmount struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currency_code"`
}

type paypalBreakdown struct {
	PaypalFee paypalAmount `json:"paypal_fee"`
}

type paypalCapture struct {
	ID        string          `json:"id"`
	CustomID  string          `json:"custom_id"`
	Amount    paypalAmount    `json:"amount"`
	Breakdown paypalBreakdown `json:"seller_receivable_breakdown"`
}

type paypalPayload struct {
	EventType string        `json:"event_type"`
	Resource  paypalCapture `json:"resource"`
}

type wisePayload struct {
	EventType string `json:"event_type"`
	Data      struct {
		Resource struct {
			ID int64 `json:"id"`
		} `json:"resource"`
		Amount    string `json:"amount"`
		Currency  string `json:"currency"`
		Reference string `json:"reference"`
	} `json:"data"`
}

// TopupResponse is returned to the provider after a webhook is handled.
type TopupResponse struct {
	EntryID   string `json:"entry_id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}
