// Package problemdetails renders errors as RFC 7807 problem documents.
package problemdetails

import (
	"encoding/json"
	"fmt"
	nethttp "net/http"

	"github.com/go-kratos/kratos/v2/errors"
)

const ContentType = "application/problem+json"

const (
	TypeNotFound      = "not-found"
	TypeBadRequest    = "bad-request"
	TypeUnavailable   = "service-unavailable"
	TypeInternalError = "internal-error"
)

type ProblemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func New(status int, problemType, detail string) *ProblemDetail {
	return &ProblemDetail{
		Type:   fmt.Sprintf("https://linkshrink.dev/problems/%s", problemType),
		Title:  nethttp.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

// FromError maps err onto a problem document. Only messages of client
// errors are exposed; anything else gets a generic detail.
func FromError(err error) *ProblemDetail {
	se := errors.FromError(err)
	status := int(se.Code)

	switch {
	case status == nethttp.StatusNotFound:
		return New(status, TypeNotFound, se.Message)
	case status >= 400 && status < 500:
		return New(status, TypeBadRequest, se.Message)
	case status == nethttp.StatusServiceUnavailable:
		return New(status, TypeUnavailable, "service temporarily unavailable")
	default:
		return New(nethttp.StatusInternalServerError, TypeInternalError, "internal server error")
	}
}

// ErrorEncoder is a kratos HTTP error encoder writing problem documents.
func ErrorEncoder(w nethttp.ResponseWriter, _ *nethttp.Request, err error) {
	pd := FromError(err)
	body, merr := json.Marshal(pd)
	if merr != nil {
		w.WriteHeader(nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(pd.Status)
	_, _ = w.Write(body)
}
