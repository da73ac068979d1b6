// Package validation holds the request validator shared by gin binding and the services.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/impresahub/impresa_backend/internal/apperrors"
)

var (
	partitaIVARe    = regexp.MustCompile(`^[0-9]{11}$`)
	codiceFiscaleRe = regexp.MustCompile(`^[A-Z]{6}[0-9LMNPQRSTUV]{2}[A-EHLMPRST][0-9LMNPQRSTUV]{2}[A-Z][0-9LMNPQRSTUV]{3}[A-Z]$`)
)

// IsPartitaIVA checks an Italian VAT number: 11 digits with a valid Luhn-style check digit.
func IsPartitaIVA(s string) bool {
	if !partitaIVARe.MatchString(s) {
		return false
	}
	sum := 0
	for i := 0; i < 10; i++ {
		d := int(s[i] - '0')
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	check := (10 - sum%10) % 10
	return check == int(s[10]-'0')
}

// IsCodiceFiscale accepts a 16 character personal tax code or an 11 digit company one.
func IsCodiceFiscale(s string) bool {
	s = strings.ToUpper(s)
	if len(s) == 11 {
		return IsPartitaIVA(s)
	}
	return codiceFiscaleRe.MatchString(s)
}

func partitaIVA(fl validator.FieldLevel) bool {
	return IsPartitaIVA(fl.Field().String())
}

func codiceFiscale(fl validator.FieldLevel) bool {
	return IsCodiceFiscale(fl.Field().String())
}

var instance = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	register(v)
	return v
})

func register(v *validator.Validate) {
	_ = v.RegisterValidation("partitaiva", partitaIVA)
	_ = v.RegisterValidation("codicefiscale", codiceFiscale)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// RegisterGinValidators installs the custom rules into gin's binding engine.
func RegisterGinValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	register(v)
	return nil
}

// Struct validates s and converts failures to an apperrors.ValidationError.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	return ToValidationError(err)
}

// ToValidationError turns validator output into human readable messages.
// Errors that are not validator errors are reported as a single message.
func ToValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationFailedError(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, message(fe))
	}
	return apperrors.NewValidationFailedError(msgs...)
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid identifier", field)
	case "partitaiva":
		return fmt.Sprintf("%s must be a valid partita IVA", field)
	case "codicefiscale":
		return fmt.Sprintf("%s must be a valid codice fiscale", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}
