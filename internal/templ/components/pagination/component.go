package pagination

import (
	"context"
	"fmt"
	"io"
	"strings"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
)

const (
	baseButtonClass     = "inline-flex items-center justify-center min-w-9 h-9 px-3 rounded-md border border-zinc-300 bg-white text-sm font-medium text-zinc-700 hover:bg-zinc-50"
	currentButtonClass  = "bg-zinc-200 text-zinc-900 border-zinc-400"
	disabledButtonClass = "cursor-not-allowed opacity-50 hover:bg-white"
	ellipsisClass       = "border-transparent bg-transparent px-1 hover:bg-transparent"
)

// ControlClass returns the merged utility classes of a control.
func ControlClass(c Control) string {
	classes := []string{baseButtonClass}
	if c.Current {
		classes = append(classes, currentButtonClass)
	}
	if c.Disabled {
		classes = append(classes, disabledButtonClass)
	}
	if c.Inert() {
		classes = append(classes, ellipsisClass)
	}
	return twmerge.Merge(classes...)
}

// Component renders the bar. Nothing is written when the bar is not visible.
func Component(bar Bar, cfg Config) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if !bar.Visible {
			return nil
		}

		var b strings.Builder
		b.WriteString(`<nav class="flex flex-wrap items-center justify-between gap-3 py-3" aria-label="Pagination">`)
		fmt.Fprintf(&b, `<p class="text-sm text-zinc-600">%s</p>`, templ.EscapeString(bar.Range))
		b.WriteString(`<div class="flex items-center gap-1">`)
		for _, c := range bar.VisibleControls() {
			writeControl(&b, c, cfg)
		}
		b.WriteString(`</div></nav>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeControl(b *strings.Builder, c Control, cfg Config) {
	class := templ.EscapeString(ControlClass(c))
	label := templ.EscapeString(c.Label)

	if c.Inert() {
		fmt.Fprintf(b, `<span class="%s" aria-hidden="true">%s</span>`, class, label)
		return
	}
	if c.Disabled || c.Href == "" {
		fmt.Fprintf(b, `<button type="button" class="%s" disabled>%s</button>`, class, label)
		return
	}

	href := templ.EscapeString(c.Href)
	b.WriteString(`<a href="`)
	b.WriteString(href)
	b.WriteString(`" class="`)
	b.WriteString(class)
	b.WriteByte('"')
	if c.Current {
		b.WriteString(` aria-current="page"`)
	}
	if cfg.UseHtmx {
		fmt.Fprintf(b, ` hx-get="%s" hx-target="#%s" hx-select="#%s" hx-swap="outerHTML" hx-sync="#%s:replace"`,
			href, templ.EscapeString(cfg.TargetID), templ.EscapeString(cfg.TargetID), templ.EscapeString(cfg.TargetID))
		if cfg.PushURL {
			b.WriteString(` hx-push-url="true"`)
		}
	}
	b.WriteByte('>')
	b.WriteString(label)
	b.WriteString(`</a>`)
}
