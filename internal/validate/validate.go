// Package validate checks form payloads against the declarative rules in
// their struct tags. Failures come back as a domain.ValidationError keyed by
// the JSON field name so forms can render them inline.
package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rongsox/dashboard/internal/domain"
	"github.com/rongsox/dashboard/internal/storage"
)

// Custom validation tags.
const (
	TagPassword = "password"
)

// A password needs at least one uppercase letter and one digit.
var (
	upperPattern = regexp.MustCompile(`[A-Z]`)
	digitPattern = regexp.MustCompile(`\d`)
)

// Validator evaluates rule sets.
type Validator struct {
	v *validator.Validate
}

// New returns a validator with the custom rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	// Registration only fails for an empty tag.
	_ = v.RegisterValidation(TagPassword, validatePassword)
	v.RegisterStructValidation(validateDepositTotal, domain.DepositInput{})

	return &Validator{v: v}
}

func validatePassword(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return upperPattern.MatchString(s) && digitPattern.MatchString(s)
}

// validateDepositTotal is the cross-field refinement of a deposit: the
// total must equal the sum of its priced details.
func validateDepositTotal(sl validator.StructLevel) {
	in := sl.Current().Interface().(domain.DepositInput)
	var sum int64
	for _, d := range in.TransactionDetails {
		sum += d.Amount
	}
	if sum != in.Amount {
		sl.ReportError(in.Amount, "amount", "Amount", "total", "")
	}
}

// Struct validates s. It returns nil or a *domain.ValidationError.
func (v *Validator) Struct(op string, s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return domain.Internal(err, op, "")
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.Internal(err, op, "")
	}

	ve := &domain.ValidationError{Op: op, Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		field := fieldPath(fe)
		if _, seen := ve.Fields[field]; seen {
			continue
		}
		ve.Fields[field] = message(fe)
	}
	return ve
}

// fieldPath drops the root struct name from the namespace, leaving e.g.
// "transactionDetails[0].weight".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// Image checks an optional uploaded image. A nil upload is valid.
func (v *Validator) Image(op, field string, u *domain.Upload) error {
	if u == nil || len(u.Data) == 0 {
		return nil
	}
	contentType := storage.DetectContentType(u.ContentType, u.Filename, nil)
	if !storage.IsAllowedImageType(contentType) {
		return domain.NewValidationError(op, field, "Image must be a png, jpg or jpeg file")
	}
	if len(u.Data) > domain.MaxImageSize {
		return domain.NewValidationError(op, field, "Image must be at most 5 MB")
	}
	return nil
}

// Merge combines validation errors from several checks. It returns nil when
// none failed and passes other errors through.
func Merge(errs ...error) error {
	var merged *domain.ValidationError
	for _, err := range errs {
		if err == nil {
			continue
		}
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		if merged == nil {
			merged = &domain.ValidationError{Op: ve.Op, Fields: make(map[string]string)}
		}
		for k, m := range ve.Fields {
			if _, ok := merged.Fields[k]; !ok {
				merged.Fields[k] = m
			}
		}
	}
	if merged == nil {
		return nil
	}
	return merged
}
