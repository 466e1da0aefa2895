// Package validation wraps go-playground/validator with the browser's
// custom rules and readable error messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
)

// Validator validates tagged structs. Field names in errors come from the
// given struct tag (json or yaml).
type Validator struct {
	validate *validator.Validate
}

// New creates a validator reporting field names from tagName. It knows the
// custom "sortkey" and "facetkey" rules.
func New(tagName string) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get(tagName), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("sortkey", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseSortKey(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("facetkey", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseFacetKey(fl.Field().String())
		return err == nil
	})
	return &Validator{validate: v}
}

// Struct validates s and joins every field error into one message.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch e.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "sortkey":
		return fmt.Sprintf("%s %q is not a valid sort key", field, e.Value())
	case "facetkey":
		return fmt.Sprintf("%s %q is not a known facet", field, e.Value())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
