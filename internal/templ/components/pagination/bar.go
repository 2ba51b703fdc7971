package pagination

import "fmt"

// ControlKind identifies a slot of the bar.
type ControlKind string

const (
	ControlPrevious         ControlKind = "previous"
	ControlFirst            ControlKind = "first"
	ControlLeadingEllipsis  ControlKind = "leading-ellipsis"
	ControlCurrent          ControlKind = "current"
	ControlTrailingEllipsis ControlKind = "trailing-ellipsis"
	ControlLast             ControlKind = "last"
	ControlNext             ControlKind = "next"
)

// Control is one slot of the bar.
type Control struct {
	Kind     ControlKind
	Label    string
	Page     int    // target page, 0 for ellipses and prev/next
	Href     string // "" when disabled or inert
	Hidden   bool
	Disabled bool
	Current  bool
}

// Inert reports whether the control never navigates.
func (c Control) Inert() bool {
	return c.Kind == ControlLeadingEllipsis || c.Kind == ControlTrailingEllipsis
}

// Bar is the computed pagination block.
type Bar struct {
	Visible  bool
	Range    string
	Controls []Control // always seven slots, left to right
}

// VisibleControls returns the controls that are not hidden.
func (b Bar) VisibleControls() []Control {
	out := make([]Control, 0, len(b.Controls))
	for _, c := range b.Controls {
		if !c.Hidden {
			out = append(out, c)
		}
	}
	return out
}

// RangeText returns "Showing X to Y of Z entries".
func RangeText(d Data) string {
	offset := d.PerPage * (d.CurrentPage - 1)
	return fmt.Sprintf("Showing %d to %d of %d entries", offset+1, offset+d.Rows, d.Total)
}

// Compute lays out the bar. It never emits more than seven slots however many
// pages exist. Previous and Next trust the envelope flags rather than the
// page numbers. A TotalPages below 1 shows only the first page. links may be
// nil.
func Compute(d Data, links Links) Bar {
	if d.Rows == 0 {
		return Bar{}
	}

	page, last := d.CurrentPage, d.TotalPages
	href := func(n int) string {
		if links == nil {
			return ""
		}
		return links.PageURL(n)
	}

	prev := Control{Kind: ControlPrevious, Label: "Previous", Disabled: !d.HasPrevious}
	if !prev.Disabled && links != nil {
		prev.Href = links.PreviousURL()
	}
	next := Control{Kind: ControlNext, Label: "Next", Disabled: !d.HasNext}
	if !next.Disabled && links != nil {
		next.Href = links.NextURL()
	}

	return Bar{
		Visible: true,
		Range:   RangeText(d),
		Controls: []Control{
			prev,
			{Kind: ControlFirst, Label: "1", Page: 1, Href: href(1), Current: page == 1},
			{Kind: ControlLeadingEllipsis, Label: "...", Disabled: true, Hidden: page <= 2},
			{Kind: ControlCurrent, Label: fmt.Sprint(page), Page: page, Href: href(page), Current: true, Hidden: page == 1 || page == last},
			{Kind: ControlTrailingEllipsis, Label: "...", Disabled: true, Hidden: page >= last-1},
			{Kind: ControlLast, Label: fmt.Sprint(last), Page: last, Href: href(last), Current: page == last, Hidden: last <= 1},
			next,
		},
	}
}
