package models

// ApiResponse is the envelope every endpoint answers with. Next names the
// view the client should move to, when the operation decides one.
type ApiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Field   string      `json:"field,omitempty"`
	Next    string      `json:"next,omitempty"`
	Page    int         `json:"page,omitempty"`
	Limit   int         `json:"limit,omitempty"`
	Total   int         `json:"total,omitempty"`
}

func SuccessResponse(data interface{}, message string) ApiResponse {
	return ApiResponse{
		Success: true,
		Data:    data,
		Message: message,
	}
}

func RedirectResponse(data interface{}, message, next string) ApiResponse {
	return ApiResponse{
		Success: true,
		Data:    data,
		Message: message,
		Next:    next,
	}
}

func ErrorResponse(err string) ApiResponse {
	return ApiResponse{
		Success: false,
		Error:   err,
	}
}

func FieldErrorResponse(field, err string) ApiResponse {
	return ApiResponse{
		Success: false,
		Error:   err,
		Field:   field,
	}
}

func ListResponse(data interface{}, total int) ApiResponse {
	return ApiResponse{
		Success: true,
		Data:    data,
		Total:   total,
	}
}
