package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rongsox/dashboard/internal/domain"
)

const (
	opStuffList   = "stuff.list"
	opStuffGet    = "stuff.get"
	opStuffCreate = "stuff.create"
	opStuffUpdate = "stuff.update"
	opStuffStatus = "stuff.status"
)

// ListStuffs fetches one page of stuffs.
func (c *Client) ListStuffs(ctx context.Context, q url.Values) (domain.Page[domain.Stuff], error) {
	return list[domain.Stuff](ctx, c, opStuffList, domain.KindStuff, q)
}

// GetStuff fetches a stuff by id.
func (c *Client) GetStuff(ctx context.Context, id string) (domain.Stuff, error) {
	return getOne[domain.Stuff](ctx, c, opStuffGet, domain.KindStuff, id)
}

// CreateStuff adds a stuff, with an optional image.
func (c *Client) CreateStuff(ctx context.Context, in domain.StuffInput, image *domain.Upload) (domain.Stuff, error) {
	return c.sendStuff(ctx, opStuffCreate, http.MethodPost, in, image)
}

// UpdateStuff replaces a stuff's fields. A nil image keeps the current one.
func (c *Client) UpdateStuff(ctx context.Context, in domain.StuffInput, image *domain.Upload) (domain.Stuff, error) {
	return c.sendStuff(ctx, opStuffUpdate, http.MethodPut, in, image)
}

func (c *Client) sendStuff(ctx context.Context, op, method string, in domain.StuffInput, image *domain.Upload) (domain.Stuff, error) {
	r, err := multipartRequest(method, "stuff", in, image, domain.KindStuff.String())
	if err != nil {
		return domain.Stuff{}, domain.Internal(err, op, failureMessage(op))
	}
	var out envelope[domain.Stuff]
	if err := c.do(ctx, op, r, &out); err != nil {
		return domain.Stuff{}, err
	}
	return out.Data, nil
}

// SetStuffStatus activates or deactivates a stuff.
func (c *Client) SetStuffStatus(ctx context.Context, id string, active bool) error {
	return c.setStatus(ctx, opStuffStatus, domain.KindStuff, id, active)
}
