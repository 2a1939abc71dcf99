// Package response defines the JSON envelope returned by the HTTP shell.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// HeaderCode carries the envelope code so that middleware can log it
// without decoding the body.
const HeaderCode = "X-Api-Response-Code"

// CodeSuccess is the envelope code of a successful response.
const CodeSuccess = 0

// Envelope wraps every JSON payload the shell returns.
type Envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// Success builds an envelope with code 0 around data.
func Success[T any](data T) Envelope[T] {
	return Envelope[T]{Code: CodeSuccess, Data: data}
}

// Failed builds an envelope carrying an error code and message.
func Failed(code int, message string) Envelope[any] {
	return Envelope[any]{Code: code, Message: message}
}

// OK reports whether the envelope carries the success code.
func (e Envelope[T]) OK() bool {
	return e.Code == CodeSuccess
}

// Write encodes env as JSON with the given HTTP status and sets HeaderCode.
func Write[T any](w http.ResponseWriter, status int, env Envelope[T], logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(HeaderCode, strconv.Itoa(env.Code))
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logger.Error("encode response envelope", "error", err, "code", env.Code)
	}
}
