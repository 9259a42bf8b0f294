package types

// SuccessEnvelope wraps every successful JSON body as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public face of a typed error. Details carry structured
// context such as StockErrorDetails and are omitted for internal errors.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps a failed response as {"error": {...}}. The storefront
// decodes it to rebuild the typed error raised by the backend.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
