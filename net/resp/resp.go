// Package resp maps service results and failures to JSON HTTP responses.
//
// Failures are represented by *Exception, which implements error so that
// lower layers (parameter validation, auth) can return one through ordinary
// error plumbing and the HTTP boundary can unwrap it with errors.As. The
// failure body is always {"error": "<message>"}.
package resp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mentorhub/apikit/ecode"
)

// Exception carries an HTTP status and a business code alongside the message.
type Exception struct {
	Status  int    `json:"-"`
	Code    int    `json:"-"`
	Message string `json:"error"`
}

// Error implements the error interface.
func (e *Exception) Error() string {
	return e.Message
}

func newException(status, code int, message string) *Exception {
	if message == "" {
		message = ecode.Text(code)
	}
	return &Exception{Status: status, Code: code, Message: message}
}

// BadRequest indicates invalid request parameters.
func BadRequest(message string) *Exception {
	return newException(http.StatusBadRequest, ecode.RequestErr, message)
}

// UnAuthorized indicates a missing or invalid credential.
func UnAuthorized(message string) *Exception {
	return newException(http.StatusUnauthorized, ecode.Unauthorized, message)
}

// Forbidden indicates the caller lacks permission.
func Forbidden(message string) *Exception {
	return newException(http.StatusForbidden, ecode.AccessDenied, message)
}

// NotFound indicates the requested resource does not exist.
func NotFound(message string) *Exception {
	return newException(http.StatusNotFound, ecode.NothingFound, message)
}

// InternalServer indicates an unexpected processing failure.
func InternalServer(message string) *Exception {
	return newException(http.StatusInternalServerError, ecode.ServerErr, message)
}

// Success writes data as a 200 JSON response.
func Success(w http.ResponseWriter, data ...any) {
	WithStatusCode(w, http.StatusOK, data...)
}

// WithStatusCode writes data as a JSON response with the given status code.
// With no data an {"message": "ok"} body is written.
func WithStatusCode(w http.ResponseWriter, statusCode int, data ...any) {
	var body any = map[string]any{"message": "ok"}
	if len(data) > 0 && data[0] != nil {
		body = data[0]
	}
	writeJSON(w, statusCode, body)
}

// Fail writes an exception as a JSON failure response. A nil exception is
// treated as an internal server error.
func Fail(w http.ResponseWriter, e *Exception) {
	if e == nil {
		e = InternalServer("")
	}
	status := e.Status
	if status == 0 {
		status = ecode.Status(e.Code)
	}
	if e.Message == "" {
		e.Message = ecode.Text(e.Code)
	}
	writeJSON(w, status, e)
}

// FailErr writes any error as a failure response, unwrapping *Exception when
// possible and falling back to a generic 500 otherwise. Store and other
// collaborator errors are deliberately not echoed to the client.
func FailErr(w http.ResponseWriter, err error) {
	var e *Exception
	if errors.As(err, &e) {
		Fail(w, e)
		return
	}
	Fail(w, InternalServer("A processing error occurred"))
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode JSON response", http.StatusInternalServerError)
	}
}
