// Package dto holds the response bodies shared by every feature's handlers.
package dto

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse acknowledges a request that has no other payload.
type MessageResponse struct {
	Message string `json:"message"`
}
