package types

// SuccessEnvelope wraps every 2xx payload, so storefront clients can rely on
// a stable `data` root regardless of the endpoint.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-visible error shape. Code is machine-readable;
// Message is safe to surface in a toast.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every non-2xx payload.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
