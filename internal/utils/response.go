package utils

import "net/http"

// Response is the JSON envelope of every API reply.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"` // null when there is nothing to return
}

// NewSuccessResponse creates a 200 envelope.
func NewSuccessResponse(message string, data interface{}) Response {
	return Response{
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	}
}

// NewCreatedResponse creates a 201 envelope.
func NewCreatedResponse(message string, data interface{}) Response {
	return Response{
		Status:  http.StatusCreated,
		Message: message,
		Data:    data,
	}
}

// NewErrorResponse creates an error envelope without data.
func NewErrorResponse(status int, message string) Response {
	return Response{
		Status:  status,
		Message: message,
		Data:    nil,
	}
}

// NewErrorResponseWithData creates an error envelope carrying details, such
// as the list of answer violations.
func NewErrorResponseWithData(status int, message string, data interface{}) Response {
	return Response{
		Status:  status,
		Message: message,
		Data:    data,
	}
}
