package square

// Wire types for the subset of the Square Connect v2 API FilmPass uses.

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type OrderLineItem struct {
	Name           string `json:"name"`
	Quantity       string `json:"quantity"`
	BasePriceMoney Money  `json:"base_price_money"`
}

type Order struct {
	ID         string            `json:"id,omitempty"`
	LocationID string            `json:"location_id"`
	LineItems  []OrderLineItem   `json:"line_items,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	State      string            `json:"state,omitempty"`
}

type CheckoutOptions struct {
	RedirectURL           string `json:"redirect_url,omitempty"`
	AskForShippingAddress bool   `json:"ask_for_shipping_address"`
}

type PrePopulatedData struct {
	BuyerEmail string `json:"buyer_email,omitempty"`
}

type CreatePaymentLinkRequest struct {
	IdempotencyKey   string            `json:"idempotency_key"`
	Description      string            `json:"description,omitempty"`
	Order            *Order            `json:"order"`
	CheckoutOptions  *CheckoutOptions  `json:"checkout_options,omitempty"`
	PrePopulatedData *PrePopulatedData `json:"pre_populated_data,omitempty"`
	PaymentNote      string            `json:"payment_note,omitempty"`
}

type PaymentLink struct {
	ID        string `json:"id"`
	Version   int    `json:"version"`
	URL       string `json:"url"`
	LongURL   string `json:"long_url"`
	OrderID   string `json:"order_id"`
	CreatedAt string `json:"created_at"`
}

type CreatePaymentLinkResponse struct {
	PaymentLink *PaymentLink `json:"payment_link"`
	Errors      []APIError   `json:"errors"`
}

type RetrieveOrderResponse struct {
	Order  *Order     `json:"order"`
	Errors []APIError `json:"errors"`
}

type APIError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
	Field    string `json:"field,omitempty"`
}

// Payment is the payment object embedded in payment.* webhook events
type Payment struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	OrderID     string `json:"order_id"`
	Note        string `json:"note"`
	LocationID  string `json:"location_id"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	AmountMoney Money  `json:"amount_money"`
}

// WebhookEvent is the envelope Square posts to the notification URL
type WebhookEvent struct {
	MerchantID string `json:"merchant_id"`
	Type       string `json:"type"`
	EventID    string `json:"event_id"`
	CreatedAt  string `json:"created_at"`
	Data       struct {
		Type   string `json:"type"`
		ID     string `json:"id"`
		Object struct {
			Payment *Payment `json:"payment"`
		} `json:"object"`
	} `json:"data"`
}

// Payment returns the embedded payment or nil
func (e *WebhookEvent) Payment() *Payment {
	if e == nil {
		return nil
	}
	return e.Data.Object.Payment
}
