package utils

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator shares gin's "binding" tag so HTTP and direct callers get the
// same rules.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.SetTagName("binding")
	})
	return validate
}

// ValidateStruct returns a Validation ServiceError describing every failed field.
func ValidateStruct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fields validator.ValidationErrors
	if ve, ok := err.(validator.ValidationErrors); ok {
		fields = ve
	} else {
		return &ServiceError{Kind: KindValidation, Message: ErrInvalidInput.Message, Err: err}
	}

	msgs := make([]string, 0, len(fields))
	for _, fe := range fields {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return &ServiceError{Kind: KindValidation, Message: "invalid input: " + strings.Join(msgs, "; ")}
}
