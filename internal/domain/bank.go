package domain

// Bank is a bank account entry customers can withdraw to.
type Bank struct {
	ID       string `json:"id"`
	BankName string `json:"bankName"`
	BankCode string `json:"bankCode"`
	Status   bool   `json:"status"`
}

// BankInput is the payload for creating or updating a bank. ID is empty on
// create.
type BankInput struct {
	ID       string `json:"id,omitempty"`
	BankName string `json:"bankName" validate:"required,min=3"`
	BankCode string `json:"bankCode" validate:"required,min=3"`
}
