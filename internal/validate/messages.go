package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// labels are the user facing names of form fields.
var labels = map[string]string{
	"bankName":     "Bank Name",
	"bankCode":     "Bank Code",
	"stuffName":    "Name",
	"buyingPrice":  "Buying price",
	"sellingPrice": "Selling price",
	"username":     "Username",
	"password":     "Password",
	"email":        "Email",
	"name":         "Name",
	"phoneNumber":  "Phone number",
	"address":      "Address",
	"birthDate":    "Birth date",
	"ktpNumber":    "KTP number",
	"customerId":   "Customer",
	"adminId":      "Admin",
	"stuffId":      "Stuff",
	"weight":       "Weight",
	"amount":       "Amount",

	"transactionDetails": "Transaction details",
}

func label(field string) string {
	if l, ok := labels[field]; ok {
		return l
	}
	return field
}

// message renders the text shown under a field.
func message(fe validator.FieldError) string {
	name := label(fe.Field())
	digits := fe.Field() == "phoneNumber" || fe.Field() == "ktpNumber"
	unit := "characters"
	if digits {
		unit = "digits"
	}

	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required", name)
	case "min":
		if fe.Kind().String() == "slice" {
			return fmt.Sprintf("Add at least %s item", fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s %s", name, fe.Param(), unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s %s", name, fe.Param(), unit)
	case "len":
		return fmt.Sprintf("%s must be %s %s", name, fe.Param(), unit)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	case "contains":
		return fmt.Sprintf("%s must contain %q symbol", name, fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must contain digits only", name)
	case "datetime":
		return fmt.Sprintf("%s must be a valid date", name)
	case TagPassword:
		return "Password must contain at least one uppercase letter and one number"
	case "total":
		return "Amount does not match the transaction details"
	default:
		return fmt.Sprintf("%s is invalid", strings.TrimSpace(name))
	}
}
