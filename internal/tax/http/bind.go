package taxhttp

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ngtax/ngtax/internal/platform/httpx"
	"github.com/ngtax/ngtax/internal/tax"
)

var errInvalidValue = errors.New("invalid value")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Bind decodes the JSON body into dst and runs its validate tags. The first
// failing field is reported as a tax validation error naming that field.
func Bind(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		return err
	}
	return Validate(dst)
}

// Validate runs validate tags on an already decoded request.
func Validate(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return tax.Invalid("", errInvalidValue, err.Error())
	}
	fe := fieldErrs[0]
	field := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required", "required_with", "required_without":
		return tax.Invalid(field, tax.ErrRequired, "")
	case "min", "max", "gte", "lte":
		return tax.Invalid(field, errInvalidValue, fe.Tag()+"="+fe.Param())
	default:
		return tax.Invalid(field, errInvalidValue, fe.Tag())
	}
}

// fieldPath drops the struct name validator prefixes to every namespace.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}
