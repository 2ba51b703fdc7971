package domain

import (
	"fmt"
	"math"
)

// TransactionType distinguishes deposits of stuff from balance withdrawals.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "Deposit"
	TransactionWithdrawal TransactionType = "Withdrawal"
)

// TransactionStatus is the processing state of a transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "Pending"
	StatusOnProcess TransactionStatus = "OnProcess"
	StatusSuccess   TransactionStatus = "Success"
)

// Valid reports whether s is a known status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusOnProcess, StatusSuccess:
		return true
	}
	return false
}

// Label returns the status as shown in tables.
func (s TransactionStatus) Label() string {
	if s == StatusOnProcess {
		return "On Process"
	}
	return string(s)
}

// Transaction is one deposit or withdrawal row.
type Transaction struct {
	ID              string            `json:"id"`
	TransactionDate Timestamp         `json:"transactionDate"`
	AdminName       string            `json:"adminName"`
	CustomerName    string            `json:"customerName"`
	TransactionType TransactionType   `json:"transactionType"`
	Amount          int64             `json:"amount"`
	Status          TransactionStatus `json:"status"`
	Image           *Image            `json:"image,omitempty"`
}

// IsDeposit reports whether the row is a deposit.
func (t Transaction) IsDeposit() bool {
	return t.TransactionType == TransactionDeposit
}

// Completed reports whether no further status change is possible.
func (t Transaction) Completed() bool {
	return t.Status == StatusSuccess
}

// =============================================================================
// Deposit
// =============================================================================

// DepositDetail is one weighed item of a deposit.
type DepositDetail struct {
	StuffID string  `json:"stuffId" validate:"required"`
	Weight  float64 `json:"weight" validate:"gt=0"`
	Amount  int64   `json:"amount"`
}

// DepositInput is the payload of POST /transactions/deposit.
type DepositInput struct {
	AdminID            string          `json:"adminId" validate:"required"`
	CustomerID         string          `json:"customerId" validate:"required"`
	TransactionDetails []DepositDetail `json:"transactionDetails" validate:"required,min=1,dive"`
	Amount             int64           `json:"amount"`
}

// PriceDeposit fills each detail amount as weight*buyingPrice and the total.
// prices maps stuff id to its buying price.
func PriceDeposit(in *DepositInput, prices map[string]int64) error {
	var total int64
	for i := range in.TransactionDetails {
		d := &in.TransactionDetails[i]
		price, ok := prices[d.StuffID]
		if !ok {
			return NewValidationError("transaction.deposit", fmt.Sprintf("transactionDetails[%d].stuffId", i), "Stuff is not available")
		}
		d.Amount = int64(math.Round(d.Weight * float64(price)))
		total += d.Amount
	}
	in.Amount = total
	return nil
}

// WithdrawalInput is the "withdrawal" JSON part of the completion request.
type WithdrawalInput struct {
	ID     string            `json:"id"`
	Status TransactionStatus `json:"status"`
}
