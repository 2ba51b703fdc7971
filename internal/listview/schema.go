// Package listview holds the filter and pagination state of the entity list
// pages. The URL query is the only place that state lives: every change is
// a full rewrite of the query, so a list view can be bookmarked, shared or
// refreshed and always fetches the same page.
package listview

import (
	"slices"

	"github.com/rongsox/dashboard/internal/domain"
)

// Query keys shared by every list.
const (
	KeyStatus          = "status"
	KeyTransactionType = "transactionType"
	KeyPage            = "page"
	KeySize            = "size"
)

// Defaults applied when a key is missing or malformed.
const (
	DefaultPage = 1
	DefaultSize = 5
)

// PageSizes are the selectable page lengths.
var PageSizes = []int{5, 10, 50}

// Option is one choice of a select filter. The empty value means no filter.
type Option struct {
	Value string
	Label string
}

// Schema describes the filter fields of one entity list.
type Schema struct {
	Kind          domain.EntityKind
	Path          string   // list page path, e.g. "/banks"
	SearchKey     string   // query key of the free text search, "" if the list has none
	StatusOptions []Option // first option must be the no-filter option
	TypeOptions   []Option // transactions only
}

// HasSearch reports whether the list has a free text search box.
func (s Schema) HasSearch() bool {
	return s.SearchKey != ""
}

// HasTypeFilter reports whether the list filters by transaction type.
func (s Schema) HasTypeFilter() bool {
	return len(s.TypeOptions) > 0
}

// Keys returns every query key the schema persists, in a stable order.
func (s Schema) Keys() []string {
	var keys []string
	if s.HasSearch() {
		keys = append(keys, s.SearchKey)
	}
	keys = append(keys, KeyStatus)
	if s.HasTypeFilter() {
		keys = append(keys, KeyTransactionType)
	}
	return append(keys, KeyPage, KeySize)
}

func (s Schema) validStatus(v string) bool {
	return v == "" || slices.ContainsFunc(s.StatusOptions, func(o Option) bool { return o.Value == v })
}

func (s Schema) validType(v string) bool {
	return v == "" || slices.ContainsFunc(s.TypeOptions, func(o Option) bool { return o.Value == v })
}

func validSize(n int) bool {
	return slices.Contains(PageSizes, n)
}

// =============================================================================
// Entity Schemas
// =============================================================================

var activeStatusOptions = []Option{
	{Value: "", Label: "All"},
	{Value: "true", Label: "Active"},
	{Value: "false", Label: "Inactive"},
}

var (
	Banks = Schema{
		Kind:          domain.KindBank,
		Path:          "/banks",
		SearchKey:     "name",
		StatusOptions: activeStatusOptions,
	}

	Stuffs = Schema{
		Kind:          domain.KindStuff,
		Path:          "/stuffs",
		SearchKey:     "name",
		StatusOptions: activeStatusOptions,
	}

	Admins = Schema{
		Kind:          domain.KindAdmin,
		Path:          "/admins",
		SearchKey:     "name",
		StatusOptions: activeStatusOptions,
	}

	Customers = Schema{
		Kind:          domain.KindCustomer,
		Path:          "/customers",
		SearchKey:     "name",
		StatusOptions: activeStatusOptions,
	}

	Transactions = Schema{
		Kind: domain.KindTransaction,
		Path: "/transactions",
		StatusOptions: []Option{
			{Value: "", Label: "All"},
			{Value: string(domain.StatusPending), Label: "Pending"},
			{Value: string(domain.StatusOnProcess), Label: "On Process"},
			{Value: string(domain.StatusSuccess), Label: "Success"},
		},
		TypeOptions: []Option{
			{Value: "", Label: "All"},
			{Value: string(domain.TransactionDeposit), Label: "Deposit"},
			{Value: string(domain.TransactionWithdrawal), Label: "Withdrawal"},
		},
	}
)
