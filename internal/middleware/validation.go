package middleware

import (
	"cpa-academy/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ValidatedIDKey is the fiber.Ctx locals key of a path id parsed by ValidateIDParam.
const ValidatedIDKey = "validated_id"

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateIDParam parses the named path parameter as a positive integer id
// and stores it under ValidatedIDKey.
func (vm *ValidationMiddleware) ValidateIDParam(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := vm.validator.ParseID(param, c.Params(param))
		if err != nil {
			return err // This will be handled by ErrorHandler middleware
		}
		c.Locals(ValidatedIDKey, id)
		return c.Next()
	}
}

// ValidatedID returns the id stored by ValidateIDParam.
func ValidatedID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(ValidatedIDKey).(int64)
	return id
}
