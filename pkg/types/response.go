package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code                string `json:"code"`
	Message             string `json:"message"`
	Details             any    `json:"details,omitempty"`
	AcknowledgeRequired bool   `json:"acknowledge_required,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
