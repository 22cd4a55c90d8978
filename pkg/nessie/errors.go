package nessie

import (
	"errors"
	"net/http"
	"strings"

	"github.com/foomo/nessiecatalog/content"
	"github.com/foomo/nessiecatalog/pkg/catalogerr"
)

// Error codes reported by the store
const (
	ErrorCodeReferenceNotFound      = "REFERENCE_NOT_FOUND"
	ErrorCodeContentNotFound        = "CONTENT_NOT_FOUND"
	ErrorCodeReferenceAlreadyExists = "REFERENCE_ALREADY_EXISTS"
	ErrorCodeReferenceConflict      = "REFERENCE_CONFLICT"
	ErrorCodeBadRequest             = "BAD_REQUEST"
)

// Conflict types carried in the details of a REFERENCE_CONFLICT
const (
	ConflictTypeKeyDoesNotExist = "KEY_DOES_NOT_EXIST"
	ConflictTypeKeyExists       = "KEY_EXISTS"
	ConflictTypeUnexpectedHash  = "UNEXPECTED_HASH"
)

type (
	// ErrorBody json error reply of the store
	ErrorBody struct {
		Status       int           `json:"status"`
		Reason       string        `json:"reason"`
		Message      string        `json:"message"`
		ErrorCode    string        `json:"errorCode,omitempty"`
		ErrorDetails *ErrorDetails `json:"errorDetails,omitempty"`
	}
	ErrorDetails struct {
		Conflicts []Conflict `json:"conflicts,omitempty"`
	}
	// Conflict single reason a commit was rejected
	Conflict struct {
		ConflictType string       `json:"conflictType"`
		Key          *content.Key `json:"key,omitempty"`
		Message      string       `json:"message,omitempty"`
	}
)

func newResponseError(method, url string, status int, data []byte) *catalogerr.ResponseError {
	ret := &catalogerr.ResponseError{
		Method:     method,
		URL:        url,
		StatusCode: status,
		Reason:     http.StatusText(status),
		Body:       strings.TrimSpace(string(data)),
	}
	var body ErrorBody
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Reason != "" {
			ret.Reason = body.Reason
		}
		ret.ErrorCode = body.ErrorCode
		ret.Message = body.Message
	}
	ret.Kind = kindOf(status, ret.ErrorCode)
	return ret
}

func kindOf(status int, code string) error {
	switch {
	case code == ErrorCodeReferenceAlreadyExists:
		return catalogerr.ErrAlreadyExists
	case status == http.StatusNotFound:
		return catalogerr.ErrNotFound
	case status == http.StatusConflict:
		return catalogerr.ErrConflict
	default:
		return catalogerr.ErrProtocol
	}
}

// Conflicts returns the conflict details carried by err, if any
func Conflicts(err error) []Conflict {
	var respErr *catalogerr.ResponseError
	if !errors.As(err, &respErr) || respErr.Body == "" {
		return nil
	}
	var body ErrorBody
	if json.Unmarshal([]byte(respErr.Body), &body) != nil || body.ErrorDetails == nil {
		return nil
	}
	return body.ErrorDetails.Conflicts
}

// IsKeyMissingConflict reports whether a commit was rejected because an
// operation referenced a key that does not exist
func IsKeyMissingConflict(err error) bool {
	for _, c := range Conflicts(err) {
		if c.ConflictType == ConflictTypeKeyDoesNotExist {
			return true
		}
	}
	return false
}
