package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rongsox/dashboard/internal/domain"
)

// list fetches one page of a collection. q is forwarded as-is, so every
// filter key is sent even when empty.
func list[T any](ctx context.Context, c *Client, op string, kind domain.EntityKind, q url.Values) (domain.Page[T], error) {
	r := get(kind.String())
	r.query = q

	var page domain.Page[T]
	if err := c.do(ctx, op, r, &page); err != nil {
		return domain.Page[T]{}, err
	}
	if page.Data == nil {
		page.Data = []T{}
	}
	return page, nil
}

// getOne fetches a single row by id.
func getOne[T any](ctx context.Context, c *Client, op string, kind domain.EntityKind, id string) (T, error) {
	var out envelope[T]
	if id == "" {
		return out.Data, domain.NotFound(op, kind.Label(), id)
	}
	if err := c.do(ctx, op, get(kind.String(), id), &out); err != nil {
		return out.Data, err
	}
	return out.Data, nil
}

// putJSON sends payload to PUT /{kind} and decodes the updated row.
func putJSON[T any](ctx context.Context, c *Client, op string, kind domain.EntityKind, payload any) (T, error) {
	var out envelope[T]
	r, err := jsonRequest(http.MethodPut, payload, kind.String())
	if err != nil {
		return out.Data, domain.Internal(err, op, failureMessage(op))
	}
	if err := c.do(ctx, op, r, &out); err != nil {
		return out.Data, err
	}
	return out.Data, nil
}

// setStatus toggles the active flag: PUT /{kind}/{id}?status=bool.
func (c *Client) setStatus(ctx context.Context, op string, kind domain.EntityKind, id string, active bool) error {
	r := request{
		method: http.MethodPut,
		path:   []string{kind.String(), id},
		query:  url.Values{"status": {strconv.FormatBool(active)}},
	}
	return c.do(ctx, op, r, nil)
}
