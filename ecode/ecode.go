// Package ecode defines business error codes and their default messages.
package ecode

import "net/http"

// Business codes. Zero is success, negative values are failures grouped by
// the HTTP status they usually map to.
const (
	OK               = 0
	RequestErr       = -400
	Unauthorized     = -401
	AccessDenied     = -403
	NothingFound     = -404
	MethodNotAllowed = -405
	Conflict         = -409
	ServerErr        = -500
)

var messages = map[int]string{
	OK:               "ok",
	RequestErr:       "Bad Request",
	Unauthorized:     "Unauthorized",
	AccessDenied:     "Forbidden",
	NothingFound:     "Not Found",
	MethodNotAllowed: "Method Not Allowed",
	Conflict:         "Conflict",
	ServerErr:        "Internal Server Error",
}

// Text returns the default message for a code. Unknown codes fall back to the
// server error message.
func Text(code int) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return messages[ServerErr]
}

// Status maps a business code to an HTTP status code.
func Status(code int) int {
	switch code {
	case OK:
		return http.StatusOK
	case RequestErr:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case AccessDenied:
		return http.StatusForbidden
	case NothingFound:
		return http.StatusNotFound
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
