package pagination

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLinks struct{ page int }

func (f fakeLinks) PageURL(n int) string { return fmt.Sprintf("/banks?page=%d", n) }
func (f fakeLinks) NextURL() string      { return f.PageURL(f.page + 1) }
func (f fakeLinks) PreviousURL() string  { return f.PageURL(f.page - 1) }

func visibleKinds(bar Bar) []ControlKind {
	var kinds []ControlKind
	for _, c := range bar.VisibleControls() {
		kinds = append(kinds, c.Kind)
	}
	return kinds
}

func control(t *testing.T, bar Bar, kind ControlKind) Control {
	t.Helper()
	for _, c := range bar.Controls {
		if c.Kind == kind {
			return c
		}
	}
	t.Fatalf("control %s missing", kind)
	return Control{}
}

func TestRangeText(t *testing.T) {
	d := Data{CurrentPage: 2, PerPage: 5, Rows: 5, Total: 12}
	assert.Equal(t, "Showing 6 to 10 of 12 entries", RangeText(d))

	d = Data{CurrentPage: 3, PerPage: 5, Rows: 2, Total: 12}
	assert.Equal(t, "Showing 11 to 12 of 12 entries", RangeText(d))
}

func TestCompute_NoRowsHidesBlock(t *testing.T) {
	bar := Compute(Data{CurrentPage: 4, TotalPages: 3, PerPage: 5, Rows: 0, Total: 12, HasPrevious: true}, nil)
	assert.False(t, bar.Visible)
	assert.Empty(t, bar.Controls)

	var buf bytes.Buffer
	require.NoError(t, Component(bar, Config{}).Render(context.Background(), &buf))
	assert.Empty(t, buf.String())
}

func TestCompute_SinglePage(t *testing.T) {
	bar := Compute(Data{CurrentPage: 1, TotalPages: 1, PerPage: 5, Rows: 3, Total: 3}, fakeLinks{page: 1})

	assert.Equal(t, []ControlKind{ControlPrevious, ControlFirst, ControlNext}, visibleKinds(bar))
	assert.True(t, control(t, bar, ControlPrevious).Disabled)
	assert.True(t, control(t, bar, ControlFirst).Current)
	assert.True(t, control(t, bar, ControlNext).Disabled)
}

func TestCompute_MiddlePage(t *testing.T) {
	bar := Compute(Data{CurrentPage: 5, TotalPages: 10, PerPage: 5, Rows: 5, Total: 50, HasPrevious: true, HasNext: true}, fakeLinks{page: 5})

	assert.Equal(t, []ControlKind{
		ControlPrevious, ControlFirst, ControlLeadingEllipsis, ControlCurrent,
		ControlTrailingEllipsis, ControlLast, ControlNext,
	}, visibleKinds(bar))

	prev := control(t, bar, ControlPrevious)
	assert.False(t, prev.Disabled)
	assert.Equal(t, "/banks?page=4", prev.Href)

	current := control(t, bar, ControlCurrent)
	assert.Equal(t, "5", current.Label)
	assert.True(t, current.Current)
	assert.Equal(t, "/banks?page=5", current.Href)

	last := control(t, bar, ControlLast)
	assert.Equal(t, "10", last.Label)
	assert.False(t, last.Current)
	assert.Equal(t, "/banks?page=10", last.Href)

	assert.False(t, control(t, bar, ControlFirst).Current)
	assert.Equal(t, "/banks?page=6", control(t, bar, ControlNext).Href)
}

func TestCompute_WindowEdges(t *testing.T) {
	tests := []struct {
		name string
		page int
		last int
		want []ControlKind
	}{
		{"first of two", 1, 2, []ControlKind{ControlPrevious, ControlFirst, ControlLast, ControlNext}},
		{"last of two", 2, 2, []ControlKind{ControlPrevious, ControlFirst, ControlLast, ControlNext}},
		{"second of ten", 2, 10, []ControlKind{ControlPrevious, ControlFirst, ControlCurrent, ControlTrailingEllipsis, ControlLast, ControlNext}},
		{"third of ten", 3, 10, []ControlKind{ControlPrevious, ControlFirst, ControlLeadingEllipsis, ControlCurrent, ControlTrailingEllipsis, ControlLast, ControlNext}},
		{"second to last", 9, 10, []ControlKind{ControlPrevious, ControlFirst, ControlLeadingEllipsis, ControlCurrent, ControlLast, ControlNext}},
		{"last of ten", 10, 10, []ControlKind{ControlPrevious, ControlFirst, ControlLeadingEllipsis, ControlLast, ControlNext}},
		{"first of many", 1, 100000, []ControlKind{ControlPrevious, ControlFirst, ControlTrailingEllipsis, ControlLast, ControlNext}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := Compute(Data{CurrentPage: tt.page, TotalPages: tt.last, PerPage: 5, Rows: 5, Total: tt.last * 5}, nil)
			assert.Equal(t, tt.want, visibleKinds(bar))
			assert.Len(t, bar.Controls, 7)
		})
	}
}

func TestCompute_TrustsEnvelopeFlags(t *testing.T) {
	// Stale envelope: numbers say there is a next page, flags say otherwise.
	bar := Compute(Data{CurrentPage: 2, TotalPages: 5, PerPage: 5, Rows: 5, Total: 25, HasPrevious: false, HasNext: false}, fakeLinks{page: 2})
	assert.True(t, control(t, bar, ControlPrevious).Disabled)
	assert.True(t, control(t, bar, ControlNext).Disabled)
	assert.Empty(t, control(t, bar, ControlNext).Href)

	bar = Compute(Data{CurrentPage: 5, TotalPages: 5, PerPage: 5, Rows: 5, Total: 25, HasPrevious: true, HasNext: true}, fakeLinks{page: 5})
	assert.False(t, control(t, bar, ControlNext).Disabled)
}

func TestComponent_RendersEllipsesInert(t *testing.T) {
	bar := Compute(Data{CurrentPage: 5, TotalPages: 10, PerPage: 5, Rows: 5, Total: 50, HasPrevious: true, HasNext: true}, fakeLinks{page: 5})

	var buf bytes.Buffer
	require.NoError(t, Component(bar, Config{TargetID: "list-area", UseHtmx: true, PushURL: true}).Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, "Showing 21 to 25 of 50 entries")
	assert.Equal(t, 2, strings.Count(html, `aria-hidden="true">...</span>`))
	assert.Contains(t, html, `href="/banks?page=10"`)
	assert.Contains(t, html, `aria-current="page"`)
	assert.Contains(t, html, `hx-push-url="true"`)
	assert.NotContains(t, html, "disabled>")
}

func TestComponent_DisabledButtons(t *testing.T) {
	bar := Compute(Data{CurrentPage: 1, TotalPages: 1, PerPage: 5, Rows: 1, Total: 1}, fakeLinks{page: 1})

	var buf bytes.Buffer
	require.NoError(t, Component(bar, Config{}).Render(context.Background(), &buf))
	html := buf.String()

	assert.Equal(t, 2, strings.Count(html, "disabled>"))
	assert.NotContains(t, html, "hx-get")
}

func TestControlClass(t *testing.T) {
	cls := ControlClass(Control{Kind: ControlFirst, Current: true})
	assert.Contains(t, cls, "bg-zinc-200")
	assert.NotContains(t, cls, "bg-white", "merge drops the overridden background")
}

func TestCompute_ZeroTotalPagesHidesLast(t *testing.T) {
	// Envelope with rows but no page count.
	bar := Compute(Data{CurrentPage: 1, TotalPages: 0, PerPage: 5, Rows: 2, Total: 2}, fakeLinks{page: 1})

	assert.Equal(t, []ControlKind{ControlPrevious, ControlFirst, ControlNext}, visibleKinds(bar))
	assert.True(t, control(t, bar, ControlLast).Hidden)
	assert.True(t, control(t, bar, ControlTrailingEllipsis).Hidden)

	var buf bytes.Buffer
	require.NoError(t, Component(bar, Config{}).Render(context.Background(), &buf))
	html := buf.String()
	assert.NotContains(t, html, "page=0")
	assert.NotContains(t, html, ">0<")
	assert.NotContains(t, html, "...")
}
