package utils

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

// RequestValidator wraps go-playground/validator so handlers can validate
// request DTOs with a single call.
type RequestValidator struct {
	validate *validator.Validate
}

var (
	validatorOnce sync.Once
	validatorInst *RequestValidator
)

// GetValidator returns the process-wide request validator.
func GetValidator() *RequestValidator {
	validatorOnce.Do(func() {
		validatorInst = &RequestValidator{validate: validator.New()}
	})
	return validatorInst
}

// Validate checks the struct's `validate` tags and returns the first error.
func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
