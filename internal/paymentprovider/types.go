package paymentprovider

// CreateInvoiceRequest is the checkout-invoice creation payload.
type CreateInvoiceRequest struct {
	Invoice struct {
		TotalAmount int    `json:"total_amount"`
		Description string `json:"description"`
	} `json:"invoice"`
	Store struct {
		Name       string `json:"name"`
		Tagline    string `json:"tagline,omitempty"`
		Phone      string `json:"phone,omitempty"`
		WebsiteURL string `json:"website_url,omitempty"`
	} `json:"store"`
	CustomData map[string]string `json:"custom_data,omitempty"`
	Actions    struct {
		CallbackURL string `json:"callback_url,omitempty"`
		ReturnURL   string `json:"return_url,omitempty"`
		CancelURL   string `json:"cancel_url,omitempty"`
	} `json:"actions"`
}

// CreateInvoiceResponse is the provider answer on invoice creation.
// ResponseCode "00" means success; ResponseText then carries the checkout
// URL the customer is redirected to.
type CreateInvoiceResponse struct {
	ResponseCode string `json:"response_code"`
	ResponseText string `json:"response_text"`
	Description  string `json:"description"`
	Token        string `json:"token"`
}

// ConfirmInvoiceResponse is the provider answer on status confirmation.
type ConfirmInvoiceResponse struct {
	Status string `json:"status"` // pending | completed | cancelled
}
