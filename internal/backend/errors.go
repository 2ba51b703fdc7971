package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/sony/gobreaker"

	"github.com/rongsox/dashboard/internal/domain"
)

// StatusError is a non-2xx backend response.
type StatusError struct {
	Status  int
	Message string
	// Fields holds per-field messages when the backend sends an errors object.
	Fields map[string]string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded %d", e.Status)
	}
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}

// errorBody is the backend error envelope. errors may be a string, a list of
// strings or an object keyed by field.
type errorBody struct {
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
}

// maxRawMessage bounds a non-JSON error body kept as the message, in bytes.
const maxRawMessage = 200

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func newStatusError(status int, payload []byte) *StatusError {
	se := &StatusError{Status: status}

	var body errorBody
	if err := json.Unmarshal(payload, &body); err != nil {
		se.Message = truncate(strings.TrimSpace(string(payload)), maxRawMessage)
		return se
	}
	se.Message = body.Message
	if len(body.Errors) == 0 {
		return se
	}

	var text string
	if json.Unmarshal(body.Errors, &text) == nil {
		if se.Message == "" {
			se.Message = text
		}
		return se
	}
	var list []string
	if json.Unmarshal(body.Errors, &list) == nil {
		if se.Message == "" {
			se.Message = strings.Join(list, "; ")
		}
		return se
	}
	var fields map[string]string
	if json.Unmarshal(body.Errors, &fields) == nil && len(fields) > 0 {
		se.Fields = fields
	}
	return se
}

// uniqueFields maps fragments of backend duplicate messages to the label
// shown to staff. Order matters: "bank name" before "name"-like fragments.
var uniqueFields = []struct {
	fragment string
	label    string
}{
	{"bank name", "Bank Name"},
	{"bankname", "Bank Name"},
	{"bank code", "Bank Code"},
	{"bankcode", "Bank Code"},
	{"stuff name", "Stuff Name"},
	{"stuffname", "Stuff Name"},
	{"username", "Username"},
	{"email", "Email"},
	{"phone", "Phone number"},
	{"ktp", "KTP number"},
}

// ConflictMessage returns the toast for a backend duplicate-field rejection.
// ok is false when the response is not a uniqueness conflict.
func ConflictMessage(status int, backendMessage string) (msg string, ok bool) {
	lower := strings.ToLower(backendMessage)
	duplicate := strings.Contains(lower, "already exist") || strings.Contains(lower, "duplicate")
	if status != http.StatusConflict && !duplicate {
		return "", false
	}
	for _, f := range uniqueFields {
		if strings.Contains(lower, f.fragment) {
			return f.label + " already exists, please choose another !", true
		}
	}
	return "Data already exists, please choose another !", true
}

// failureMessages are the per-operation toasts for rejected requests.
var failureMessages = map[string]string{
	opBankList:   "Failed to load banks, please try again !",
	opBankGet:    "Failed to load bank, please try again !",
	opBankCreate: "Add bank failed, please try again !",
	opBankUpdate: "Update bank failed, please try again !",
	opBankStatus: "Update bank status failed, please try again !",

	opStuffList:   "Failed to load stuffs, please try again !",
	opStuffGet:    "Failed to load stuff, please try again !",
	opStuffCreate: "Add stuff failed, please try again !",
	opStuffUpdate: "Update stuff failed, please try again !",
	opStuffStatus: "Update stuff status failed, please try again !",

	opAdminList:   "Failed to load admins, please try again !",
	opAdminGet:    "Failed to load admin, please try again !",
	opAdminUpdate: "Update admin failed, please try again !",
	opAdminStatus: "Update admin status failed, please try again !",

	opCustomerList:   "Failed to load customers, please try again !",
	opCustomerGet:    "Failed to load customer, please try again !",
	opCustomerUpdate: "Update customer failed, please try again !",
	opCustomerStatus: "Update customer status failed, please try again !",

	opTransactionList:  "Failed to load transactions, please try again !",
	opDepositCreate:    "Add transaction failed, please try again !",
	opDepositStatus:    "Update deposit status failed, please try again !",
	opWithdrawalUpdate: "Update withdrawal failed, please try again !",

	opLogin:            "Login failed, please check your email and password !",
	opRegisterAdmin:    "Register admin failed, please try again !",
	opRegisterCustomer: "Register customer failed, please try again !",
}

func failureMessage(op string) string {
	if msg, ok := failureMessages[op]; ok {
		return msg
	}
	return domain.GenericFailureMessage
}

// mapError converts breaker, transport and status errors into domain errors.
func (c *Client) mapError(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Warn("backend request rejected by circuit breaker", "op", op)
		return domain.Unavailable(err, op)
	}

	var se *StatusError
	if !errors.As(err, &se) {
		if errors.Is(err, context.Canceled) {
			return domain.Wrap(err, domain.EUNAVAILABLE, op, "Request cancelled")
		}
		c.logger.Error("backend transport error", "op", op, "error", eris.ToString(err, true))
		return domain.Unavailable(err, op)
	}

	if msg, ok := ConflictMessage(se.Status, se.Message); ok {
		return domain.Wrap(se, domain.ECONFLICT, op, msg)
	}

	switch se.Status {
	case http.StatusUnauthorized:
		if op == opLogin {
			return domain.Wrap(se, domain.EUNAUTHORIZED, op, failureMessage(op))
		}
		return domain.Wrap(se, domain.EUNAUTHORIZED, op, "Your session has expired, please sign in again !")
	case http.StatusForbidden:
		return domain.Wrap(se, domain.EFORBIDDEN, op, "You are not authorized to perform this action !")
	case http.StatusNotFound:
		return domain.Wrap(se, domain.ENOTFOUND, op, "Data not found !")
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if len(se.Fields) > 0 {
			return &domain.ValidationError{Op: op, Fields: se.Fields}
		}
		return domain.Wrap(se, domain.EINVALID, op, failureMessage(op))
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		c.logger.Warn("backend unavailable", "op", op, "status", se.Status)
		return domain.Unavailable(se, op)
	}

	c.logger.Error("backend request failed", "op", op, "status", se.Status, "message", se.Message)
	return domain.Internal(se, op, failureMessage(op))
}
