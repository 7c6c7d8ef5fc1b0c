package serverutils

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct-tag validation on a request DTO.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			first := errs[0]
			return &ValidationError{
				Message: fmt.Sprintf("field '%s' failed on rule '%s'", first.Field(), first.Tag()),
			}
		}
		return &ValidationError{Message: err.Error()}
	}
	return nil
}
