package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator adapts validator.Validate to echo.Validator.
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New panics when a rule fails to register.
// Errors name fields by their json, query or form tag, the way clients send them.
func New() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(fieldName)

	registerNullTypes(v)

	if err := registerRules(v); err != nil {
		panic("failed to register validators: " + err.Error())
	}

	return &CustomValidator{validator: v}
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "query", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}
