package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rongsox/dashboard/internal/domain"
)

const (
	opBankList   = "bank.list"
	opBankGet    = "bank.get"
	opBankCreate = "bank.create"
	opBankUpdate = "bank.update"
	opBankStatus = "bank.status"
)

// ListBanks fetches one page of banks.
func (c *Client) ListBanks(ctx context.Context, q url.Values) (domain.Page[domain.Bank], error) {
	return list[domain.Bank](ctx, c, opBankList, domain.KindBank, q)
}

// GetBank fetches a bank by id.
func (c *Client) GetBank(ctx context.Context, id string) (domain.Bank, error) {
	return getOne[domain.Bank](ctx, c, opBankGet, domain.KindBank, id)
}

// CreateBank adds a bank.
func (c *Client) CreateBank(ctx context.Context, in domain.BankInput) (domain.Bank, error) {
	var out envelope[domain.Bank]
	r, err := jsonRequest(http.MethodPost, in, domain.KindBank.String())
	if err != nil {
		return domain.Bank{}, domain.Internal(err, opBankCreate, failureMessage(opBankCreate))
	}
	if err := c.do(ctx, opBankCreate, r, &out); err != nil {
		return domain.Bank{}, err
	}
	return out.Data, nil
}

// UpdateBank replaces a bank's fields; in.ID selects the row.
func (c *Client) UpdateBank(ctx context.Context, in domain.BankInput) (domain.Bank, error) {
	return putJSON[domain.Bank](ctx, c, opBankUpdate, domain.KindBank, in)
}

// SetBankStatus activates or deactivates a bank.
func (c *Client) SetBankStatus(ctx context.Context, id string, active bool) error {
	return c.setStatus(ctx, opBankStatus, domain.KindBank, id, active)
}
