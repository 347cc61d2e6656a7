package validate

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewCustomValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

var _ echo.Validator = (*CustomValidator)(nil)

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
