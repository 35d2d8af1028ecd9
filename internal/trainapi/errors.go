package trainapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// StatusError is returned when the service answers with a non-success status,
// or reports an in-band error in a success body.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Op + ": http " + strconv.Itoa(e.StatusCode)
	if t := http.StatusText(e.StatusCode); t != "" {
		msg += " " + t
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// IsStatus reports whether err is a *StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// newStatusError extracts a message from common error body shapes:
// {"message": ...}, {"detail": ...}, {"error": ...}, or plain text.
func newStatusError(op string, code int, body []byte) *StatusError {
	return &StatusError{Op: op, StatusCode: code, Message: errorMessage(body)}
}

func errorMessage(body []byte) string {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err == nil {
		for _, k := range []string{"message", "detail", "error"} {
			switch v := m[k].(type) {
			case string:
				if v != "" {
					return v
				}
			case nil:
			default:
				if b, err := json.Marshal(v); err == nil {
					return string(b)
				}
			}
		}
	}
	return strings.TrimSpace(string(body))
}
