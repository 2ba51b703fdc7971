package handler

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rongsox/dashboard/internal/domain"
)

// rupiahPrinter groups digits the Indonesian way: 1.250.000.
var rupiahPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah formats an amount in whole rupiah, e.g. "Rp 1.250.000".
func FormatRupiah(amount int64) string {
	if amount < 0 {
		return "-" + rupiahPrinter.Sprintf("Rp %d", -amount)
	}
	return rupiahPrinter.Sprintf("Rp %d", amount)
}

// FormatWeight formats kilograms with up to two decimals and a comma
// separator, e.g. "2,5 kg".
func FormatWeight(kg float64) string {
	s := strconv.FormatFloat(kg, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return strings.Replace(s, ".", ",", 1) + " kg"
}

// TemplateFuncs returns a FuncMap with custom template functions
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		// Math functions
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},

		// Formatting
		"rupiah": FormatRupiah,
		"weight": FormatWeight,
		"year": func() int {
			return time.Now().Year()
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format("02 Jan 2006")
		},
		"formatDateTime": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"statusLabel": func(s domain.TransactionStatus) string {
			return s.Label()
		},
		"activeLabel": func(active bool) string {
			if active {
				return "Active"
			}
			return "Inactive"
		},

		// String functions
		"hasPrefix": strings.HasPrefix,
		"lower":     strings.ToLower,
		"title": func(v interface{}) string {
			return cases.Title(language.English).String(fmt.Sprint(v))
		},
		"initial": func(s string) string {
			s = strings.TrimSpace(s)
			if s == "" {
				return "?"
			}
			return strings.ToUpper(string([]rune(s)[:1]))
		},

		// Conditional/Logic functions
		"ternary": func(condition bool, trueVal, falseVal interface{}) interface{} {
			if condition {
				return trueVal
			}
			return falseVal
		},
		"selected": func(a, b string) template.HTMLAttr {
			if a == b {
				return "selected"
			}
			return ""
		},

		// Collection functions
		"dict": func(values ...interface{}) map[string]interface{} {
			if len(values)%2 != 0 {
				return nil
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil
				}
				dict[key] = values[i+1]
			}
			return dict
		},
		"field": func(m map[string]string, key string) string {
			return m[key]
		},
	}
}
