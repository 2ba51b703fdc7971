// Package domain contains core business types shared by the dashboard.
//
// This file defines the entity kinds served by the list views and the paging
// envelope the backend returns with every list response.
package domain

// =============================================================================
// Entity Kinds
// =============================================================================

// EntityKind names a backend collection. It doubles as the REST path segment
// and as the cache invalidation unit.
type EntityKind string

const (
	KindBank        EntityKind = "banks"
	KindStuff       EntityKind = "stuffs"
	KindAdmin       EntityKind = "admins"
	KindCustomer    EntityKind = "customers"
	KindTransaction EntityKind = "transactions"
)

// String returns the collection name.
func (k EntityKind) String() string {
	return string(k)
}

// Label returns a human readable, singular name for toasts.
func (k EntityKind) Label() string {
	switch k {
	case KindBank:
		return "bank"
	case KindStuff:
		return "stuff"
	case KindAdmin:
		return "admin"
	case KindCustomer:
		return "customer"
	case KindTransaction:
		return "transaction"
	default:
		return string(k)
	}
}

// =============================================================================
// Paging Envelope
// =============================================================================

// Paging is the server-reported metadata for one page of a list.
// It is only valid for the filter combination that produced it.
type Paging struct {
	TotalElements int  `json:"totalElement"`
	TotalPages    int  `json:"totalPages"`
	HasPrevious   bool `json:"hasPrevious"`
	HasNext       bool `json:"hasNext"`
	Page          int  `json:"page,omitempty"`
	Size          int  `json:"size,omitempty"`
}

// Page is one fetched page of rows together with its envelope.
type Page[T any] struct {
	Data   []T    `json:"data"`
	Paging Paging `json:"paging"`
}

// Rows returns the number of rows actually returned.
func (p Page[T]) Rows() int {
	return len(p.Data)
}

// Empty reports whether the page has no rows to paginate.
func (p Page[T]) Empty() bool {
	return len(p.Data) == 0
}

// TotalPagesFor returns ceil(total/size). It is 0 when there are no records.
func TotalPagesFor(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
