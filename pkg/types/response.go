package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// SourcedEnvelope marks which side of the sync layer served a read.
type SourcedEnvelope struct {
	Data   any    `json:"data"`
	Source string `json:"source"`
}
