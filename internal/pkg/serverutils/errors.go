package serverutils

import "fmt"

// NotFoundError is returned by lookups on ids that do not exist. Deletes are
// exempt: deleting an absent conversation is a no-op, never this error.
type NotFoundError struct {
	Resource string
	Id       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Id)
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, Id: id}
}

// ValidationError wraps request validation failures so the error middleware
// maps them to 400 instead of 500.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
