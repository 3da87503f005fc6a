package dues

import "fmt"

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func validationError(field, reason string) *Error {
	return &Error{
		Status:  422,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("invalid %s", field),
		Details: map[string]any{field: reason},
	}
}

func notFound(code, message string) *Error {
	return &Error{Status: 404, Code: code, Message: message}
}
