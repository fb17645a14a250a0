package settle_invoice

// SettleCreditRequest HTTP request model
type SettleCreditRequest struct {
	CreditRef string `json:"creditRef"`
}
