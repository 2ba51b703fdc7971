package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rongsox/dashboard/internal/domain"
)

const (
	opTransactionList  = "transaction.list"
	opDepositCreate    = "transaction.deposit"
	opDepositStatus    = "transaction.deposit_status"
	opWithdrawalUpdate = "transaction.withdrawal"
)

// ListTransactions fetches one page of deposits and withdrawals.
func (c *Client) ListTransactions(ctx context.Context, q url.Values) (domain.Page[domain.Transaction], error) {
	return list[domain.Transaction](ctx, c, opTransactionList, domain.KindTransaction, q)
}

// CreateDeposit records a priced deposit. in.Amount must already equal the
// sum of the detail amounts.
func (c *Client) CreateDeposit(ctx context.Context, in domain.DepositInput) error {
	r, err := jsonRequest(http.MethodPost, in, domain.KindTransaction.String(), "deposit")
	if err != nil {
		return domain.Internal(err, opDepositCreate, failureMessage(opDepositCreate))
	}
	return c.do(ctx, opDepositCreate, r, nil)
}

// SetDepositStatus moves a deposit to status.
func (c *Client) SetDepositStatus(ctx context.Context, id string, status domain.TransactionStatus) error {
	if !status.Valid() {
		return domain.Invalid(opDepositStatus, "Unknown transaction status")
	}
	r := request{
		method: http.MethodPut,
		path:   []string{domain.KindTransaction.String(), "deposit", id},
		query:  url.Values{"status": {string(status)}},
	}
	return c.do(ctx, opDepositStatus, r, nil)
}

// CompleteWithdrawal marks a withdrawal as paid out and attaches the
// transfer receipt.
func (c *Client) CompleteWithdrawal(ctx context.Context, id string, receipt *domain.Upload) error {
	if receipt == nil || len(receipt.Data) == 0 {
		return domain.NewValidationError(opWithdrawalUpdate, "image", "Receipt image is required")
	}
	in := domain.WithdrawalInput{ID: id, Status: domain.StatusSuccess}
	r, err := multipartRequest(http.MethodPut, "withdrawal", in, receipt, domain.KindTransaction.String(), "withdrawal")
	if err != nil {
		return domain.Internal(err, opWithdrawalUpdate, failureMessage(opWithdrawalUpdate))
	}
	return c.do(ctx, opWithdrawalUpdate, r, nil)
}
