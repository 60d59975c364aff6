// Package types holds the JSON envelopes every storefront endpoint answers with.
package types

// SuccessEnvelope wraps a successful payload as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public half of a pkg/errors error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	// Retryable tells the client the same request may succeed later.
	Retryable bool `json:"retryable,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
