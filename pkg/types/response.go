package types

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type SuccessEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Error   APIError `json:"error"`
}
