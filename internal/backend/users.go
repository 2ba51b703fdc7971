package backend

import (
	"context"
	"net/url"

	"github.com/rongsox/dashboard/internal/domain"
)

const (
	opAdminList   = "admin.list"
	opAdminGet    = "admin.get"
	opAdminUpdate = "admin.update"
	opAdminStatus = "admin.status"

	opCustomerList   = "customer.list"
	opCustomerGet    = "customer.get"
	opCustomerUpdate = "customer.update"
	opCustomerStatus = "customer.status"
)

// ListAdmins fetches one page of admins.
func (c *Client) ListAdmins(ctx context.Context, q url.Values) (domain.Page[domain.Admin], error) {
	return list[domain.Admin](ctx, c, opAdminList, domain.KindAdmin, q)
}

// GetAdmin fetches an admin by id.
func (c *Client) GetAdmin(ctx context.Context, id string) (domain.Admin, error) {
	return getOne[domain.Admin](ctx, c, opAdminGet, domain.KindAdmin, id)
}

// UpdateAdmin replaces an admin's profile. An empty password is omitted.
func (c *Client) UpdateAdmin(ctx context.Context, in domain.AdminInput) (domain.Admin, error) {
	return putJSON[domain.Admin](ctx, c, opAdminUpdate, domain.KindAdmin, in)
}

// SetAdminStatus activates or deactivates an admin.
func (c *Client) SetAdminStatus(ctx context.Context, id string, active bool) error {
	return c.setStatus(ctx, opAdminStatus, domain.KindAdmin, id, active)
}

// ListCustomers fetches one page of customers.
func (c *Client) ListCustomers(ctx context.Context, q url.Values) (domain.Page[domain.Customer], error) {
	return list[domain.Customer](ctx, c, opCustomerList, domain.KindCustomer, q)
}

// GetCustomer fetches a customer by id.
func (c *Client) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	return getOne[domain.Customer](ctx, c, opCustomerGet, domain.KindCustomer, id)
}

// UpdateCustomer replaces a customer's profile.
func (c *Client) UpdateCustomer(ctx context.Context, in domain.CustomerInput) (domain.Customer, error) {
	return putJSON[domain.Customer](ctx, c, opCustomerUpdate, domain.KindCustomer, in)
}

// SetCustomerStatus activates or deactivates a customer.
func (c *Client) SetCustomerStatus(ctx context.Context, id string, active bool) error {
	return c.setStatus(ctx, opCustomerStatus, domain.KindCustomer, id, active)
}
