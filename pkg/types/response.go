package types

// SuccessEnvelope wraps every successful canteen API response so
// clients always unwrap a top-level data key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public shape of a failure. Code is stable across
// releases; Details carries per-field validation messages when present.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps failed responses; the kitchen dashboard keys
// its error toasts off error.code.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
