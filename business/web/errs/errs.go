// Package errs provides the error types returned by the ledger web api.
package errs

import "errors"

// Response is the form used for API responses from failures in the API.
// Index is set when a specific block caused the failure.
type Response struct {
	Error  string            `json:"error"`
	Index  *uint64           `json:"index,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context. The message of a trusted
// error is safe to show to the client.
type Trusted struct {
	Err    error
	Status int
	Index  *uint64
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{Err: err, Status: status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap returns the wrapped error.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// Response converts the trusted error into the response sent to the client.
func (te *Trusted) Response() Response {
	return Response{
		Error: te.Err.Error(),
		Index: te.Index,
	}
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var te *Trusted
	return errors.As(err, &te)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}
