package fundraising

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

func eventNotFound() *Error {
	return &Error{Status: 404, Code: "EVENT_NOT_FOUND", Message: "Event not found."}
}

func teamNotFound() *Error {
	return &Error{Status: 404, Code: "TEAM_NOT_FOUND", Message: "Team not found."}
}

func memberNotFound() *Error {
	return &Error{Status: 404, Code: "MEMBER_NOT_FOUND", Message: "Member not found."}
}
