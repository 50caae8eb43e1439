package server

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/park285/chessfront/pkg/chessdto"
)

var validate = validator.New()

// validateRequest returns nil when req passes its struct tags.
func validateRequest(req *chessdto.AdvanceRequest) *chessdto.DomainError {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &chessdto.DomainError{Code: chessdto.CodeInvalidRequest, Message: err.Error()}
	}

	var details strings.Builder
	for _, fe := range verrs {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		switch fe.Tag() {
		case "required":
			fmt.Fprintf(&details, "%s is required", fe.Field())
		case "max":
			if fe.Kind() == reflect.String {
				fmt.Fprintf(&details, "%s must be at most %s characters", fe.Field(), fe.Param())
			} else {
				fmt.Fprintf(&details, "%s must have at most %s entries", fe.Field(), fe.Param())
			}
		case "len":
			fmt.Fprintf(&details, "%s must be exactly %s characters", fe.Field(), fe.Param())
		default:
			fmt.Fprintf(&details, "%s failed %s validation", fe.Field(), fe.Tag())
		}
	}
	return &chessdto.DomainError{Code: chessdto.CodeInvalidRequest, Message: details.String()}
}
