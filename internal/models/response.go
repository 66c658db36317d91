package models

// ErrorResponse is the uniform error body returned by the API.
type ErrorResponse struct {
	Message string `json:"message"`
}
