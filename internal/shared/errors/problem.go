// Package errors renders RFC 7807 problem documents for the HTTP API.
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ProblemDetail is an RFC 7807 problem document. Extensions are rendered as top-level
// members next to the standard ones.
type ProblemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	Instance   string         `json:"instance,omitempty"`
	Extensions map[string]any `json:"-"`
}

// MarshalJSON flattens extensions into the document. Standard members win on collisions.
func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extensions)+5)
	for k, v := range p.Extensions {
		out[k] = v
	}
	out["type"] = p.Type
	out["title"] = p.Title
	out["status"] = p.Status
	if p.Detail != "" {
		out["detail"] = p.Detail
	}
	if p.Instance != "" {
		out["instance"] = p.Instance
	}
	return json.Marshal(out)
}

func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// Message is the human readable text clients show: the detail when present, the title otherwise.
func (p ProblemDetail) Message() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}

// WithDetail returns a copy carrying detail.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithExtension returns a copy with one more extension member. The receiver's map is
// left untouched.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	extensions := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		extensions[k] = v
	}
	extensions[key] = value
	p.Extensions = extensions
	return p
}

const (
	TypeValidation   = "/problems/validation-error"
	TypeBadRequest   = "/problems/bad-request"
	TypeNotFound     = "/problems/not-found"
	TypeConflict     = "/problems/conflict"
	TypeInvalidState = "/problems/invalid-state"
	TypePayment      = "/problems/payment-gateway-error"
	TypeInternal     = "/problems/internal-error"
)

// Problem templates. Copy them with WithDetail before responding.
var (
	ErrValidation = ProblemDetail{Type: TypeValidation, Title: "Validation Error", Status: http.StatusBadRequest}
	ErrBadRequest = ProblemDetail{Type: TypeBadRequest, Title: "Bad Request", Status: http.StatusBadRequest}
	ErrNotFound   = ProblemDetail{Type: TypeNotFound, Title: "Resource Not Found", Status: http.StatusNotFound}
	ErrConflict   = ProblemDetail{Type: TypeConflict, Title: "Conflict", Status: http.StatusConflict}
	// ErrInvalidState is a lifecycle rule rejecting the change, e.g. cancelling a delivered order.
	ErrInvalidState = ProblemDetail{Type: TypeInvalidState, Title: "Invalid State", Status: http.StatusBadRequest}
	// ErrPaymentGateway keeps the 500 of an internal error but lets clients tell processor
	// failures apart.
	ErrPaymentGateway = ProblemDetail{Type: TypePayment, Title: "Payment Gateway Error", Status: http.StatusInternalServerError}
	ErrInternal       = ProblemDetail{Type: TypeInternal, Title: "Internal Server Error", Status: http.StatusInternalServerError}
)
