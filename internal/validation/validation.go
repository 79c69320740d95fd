// Package validation wraps go-playground/validator with the field rules used
// by the services and converts failures into domain.ErrInvalidInput.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/go-playground/validator/v10"
)

var (
	passportRe   = regexp.MustCompile(`^[A-Z0-9]{6,12}$`)
	airportRe    = regexp.MustCompile(`^[A-Z]{3}$`)
	flightCodeRe = regexp.MustCompile(`^[A-Z0-9]{3,8}$`)
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "passport", passportRe)
	mustRegister(v, "iata", airportRe)
	mustRegister(v, "flightcode", flightCodeRe)
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, re *regexp.Regexp) {
	if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
}

// Struct validates s and reports every failing field in one error.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", field, fe.Param())
	case "passport":
		return field + " must be 6-12 upper-case letters or digits"
	case "iata":
		return field + " must be a 3-letter airport code"
	case "flightcode":
		return field + " must be 3-8 upper-case letters or digits"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
