package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const locationBody = "body"

var (
	digitsOnly = regexp.MustCompile(`^\d+$`)
	isoDate    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	// now is the clock behind the futuredate rule.
	now = time.Now
)

// FieldError is one entry of a validation failure response.
type FieldError struct {
	Msg      string `json:"msg"`
	Param    string `json:"param"`
	Value    any    `json:"value"`
	Location string `json:"location"`
}

// ValidationErrors is rendered as {"errors": [...]}.
type ValidationErrors []FieldError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fe.Param+": "+fe.Msg)
	}
	return strings.Join(msgs, "; ")
}

// messageTable maps "param.tag" to the text shown to clients.
type messageTable map[string]string

// describedRequest is implemented by every request type that carries its own messages.
type describedRequest interface {
	messages() messageTable
}

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("notnumeric", func(fl validator.FieldLevel) bool {
		return !digitsOnly.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !isoDate.MatchString(s) {
			return false
		}
		_, err := time.Parse("2006-01-02", s)
		return err == nil
	})
	_ = v.RegisterValidation("futuredate", func(fl validator.FieldLevel) bool {
		d, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil && d.After(now())
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return strongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("alphaspace", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if !unicode.IsLetter(r) && r != ' ' {
				return false
			}
		}
		return true
	})
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface. Failures come back as ValidationErrors.
func (ev *echoValidator) Validate(i any) error {
	err := ev.v.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	var table messageTable
	if d, ok := i.(describedRequest); ok {
		table = d.messages()
	}
	out := make(ValidationErrors, 0, len(ve))
	for _, fe := range ve {
		out = append(out, FieldError{
			Msg:      fieldMessage(table, fe.Field(), fe.Tag(), fe.Param()),
			Param:    fe.Field(),
			Value:    fieldValue(fe.Value()),
			Location: locationBody,
		})
	}
	return out
}

func fieldMessage(table messageTable, field, tag, param string) string {
	if msg, ok := table[field+"."+tag]; ok {
		return msg
	}
	switch tag {
	case "required":
		return field + " é obrigatório"
	case "email":
		return "Informe um email válido"
	case "min":
		return fmt.Sprintf("%s deve ter no mínimo %s", field, param)
	case "max":
		return fmt.Sprintf("%s deve ter no máximo %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s deve ser um de: %s", field, param)
	default:
		return fmt.Sprintf("%s inválido (%s)", field, tag)
	}
}

// fieldValue dereferences pointers so nil fields render as null.
func fieldValue(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return rv.Elem().Interface()
	}
	return v
}

// strongPassword requires six characters with a lower, an upper, a digit and a symbol.
func strongPassword(s string) bool {
	if len([]rune(s)) < 6 {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

var errMalformedBody = errors.New("malformed body")

// bindAndValidate binds the JSON body into req and validates it. A field
// whose JSON type is wrong is reported once, with the message of its "type"
// rule, in place of whatever the struct rules say about it.
func bindAndValidate(c echo.Context, req any) error {
	var errs ValidationErrors
	var typeErr *json.UnmarshalTypeError

	if err := c.Bind(req); err != nil {
		if !errors.As(err, &typeErr) {
			return errMalformedBody
		}
		var table messageTable
		if d, ok := req.(describedRequest); ok {
			table = d.messages()
		}
		errs = append(errs, FieldError{
			Msg:      fieldMessage(table, typeErr.Field, "type", ""),
			Param:    typeErr.Field,
			Value:    typeErr.Value,
			Location: locationBody,
		})
	}

	if n, ok := req.(interface{ normalize() }); ok {
		n.normalize()
	}

	if err := c.Validate(req); err != nil {
		var ve ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		for _, fe := range ve {
			if typeErr != nil && fe.Param == typeErr.Field {
				continue
			}
			errs = append(errs, fe)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidationStatuses holds the status sent on validation failure, keyed by route name.
// Routes not listed answer 400.
var ValidationStatuses = map[string]int{
	"usuario.create": http.StatusForbidden,
	"usuario.login":  http.StatusForbidden,
}

func validationStatus(route string) int {
	if s, ok := ValidationStatuses[route]; ok {
		return s
	}
	return http.StatusBadRequest
}

type errorsBody struct {
	Errors ValidationErrors `json:"errors"`
}

// respondBindError renders the outcome of bindAndValidate for route.
func respondBindError(c echo.Context, route string, err error) error {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return c.JSON(validationStatus(route), errorsBody{Errors: ve})
	}
	return c.JSON(http.StatusBadRequest, errorsBody{Errors: ValidationErrors{{Msg: "JSON inválido", Location: locationBody}}})
}
