// Package schema validates untyped request input against declarative field
// schemas. Every field is checked before reporting, so a caller gets all
// violations in a single response.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/eaglebank/purchase-service/internal/apperror"
	"github.com/eaglebank/purchase-service/internal/clock"
)

// Type is the primitive a field is coerced to before its rules run.
type Type int

const (
	String Type = iota
	Decimal
	Date
)

func (t Type) String() string {
	switch t {
	case Decimal:
		return "number"
	case Date:
		return "date"
	default:
		return "string"
	}
}

// DateLayout is the calendar-date wire format.
const DateLayout = "2006-01-02"

// Field declares one input key. Rules is a validator tag string evaluated
// against the coerced value, e.g. "min=2,max=100" or "oneof=un kg".
// MaxPlaces bounds the fractional digits of a Decimal; zero leaves it open.
// Normalize rewrites a String before its rules run.
type Field struct {
	Name      string
	Type      Type
	Required  bool
	Rules     string
	MaxPlaces int32
	Normalize func(string) string
	Messages  map[string]string
}

// Schema is an ordered list of fields. Input keys not declared are dropped.
type Schema []Field

// Object builds a Schema from its fields.
func Object(fields ...Field) Schema { return Schema(fields) }

// Validator evaluates schemas. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
	clock    clock.Clock
}

func NewValidator(c clock.Clock) *Validator {
	v := &Validator{validate: validator.New(), clock: c}
	if err := v.validate.RegisterValidation("notfuture", v.notFuture); err != nil {
		panic(fmt.Sprintf("schema: register notfuture: %v", err))
	}
	return v
}

// notFuture rejects calendar dates later than today.
func (v *Validator) notFuture(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	now := v.clock.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !d.After(today)
}

// Validate coerces and checks input against s. On success the returned Values
// hold only declared fields; otherwise every failing field is reported.
func (v *Validator) Validate(input map[string]any, s Schema) (Values, []apperror.FieldError) {
	values := make(Values, len(s))
	var fieldErrors []apperror.FieldError

	for _, field := range s {
		raw, present := input[field.Name]
		if !present || raw == nil {
			if field.Required {
				fieldErrors = append(fieldErrors, field.fail("required", ""))
			}
			continue
		}

		if str, ok := raw.(string); ok && field.Type == String && field.Normalize != nil {
			raw = field.Normalize(str)
		}

		value, check, err := coerce(field.Type, raw)
		if err != nil {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   field.Name,
				Message: err.Error(),
				Type:    field.Type.String(),
			})
			continue
		}

		if field.Rules != "" {
			if err := v.validate.Var(check, field.Rules); err != nil {
				var verrs validator.ValidationErrors
				if errors.As(err, &verrs) && len(verrs) > 0 {
					fieldErrors = append(fieldErrors, field.fail(verrs[0].Tag(), verrs[0].Param()))
				} else {
					fieldErrors = append(fieldErrors, field.fail("", ""))
				}
				continue
			}
		}

		if d, ok := value.(decimal.Decimal); ok && field.MaxPlaces > 0 && !withinPlaces(d, field.MaxPlaces) {
			fieldErrors = append(fieldErrors, field.fail("places", strconv.Itoa(int(field.MaxPlaces))))
			continue
		}

		values[field.Name] = value
	}

	if len(fieldErrors) > 0 {
		return nil, fieldErrors
	}
	return values, nil
}

func (f Field) fail(tag, param string) apperror.FieldError {
	msg, ok := f.Messages[tag]
	if !ok {
		msg = messageFor(tag, param)
	}
	if tag == "" {
		tag = "invalid"
	}
	return apperror.FieldError{Field: f.Name, Message: msg, Type: tag}
}

func messageFor(tag, param string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "min":
		return "Must be at least " + param + " characters long"
	case "max":
		return "Must be at most " + param + " characters long"
	case "gt":
		return "Value must be greater than " + param
	case "gte":
		return "Value must be greater than or equal to " + param
	case "lt":
		return "Value must be less than " + param
	case "places":
		return "Must have at most " + param + " decimal places"
	case "oneof":
		return "Must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "uuid", "uuid4":
		return "Invalid uuid"
	case "notfuture":
		return "Date cannot be in the future"
	default:
		return "Invalid value"
	}
}

// coerce converts raw into the field's Go type. The second result is the
// representation handed to the rule engine.
func coerce(t Type, raw any) (any, any, error) {
	switch t {
	case Decimal:
		d, err := toDecimal(raw)
		if err != nil {
			return nil, nil, err
		}
		return d, ruleFloat(d), nil
	case Date:
		s, ok := raw.(string)
		if !ok {
			return nil, nil, errors.New("Expected date string")
		}
		d, err := ParseDate(s)
		if err != nil {
			return nil, nil, errors.New("Invalid date")
		}
		return d, d, nil
	default:
		s, ok := raw.(string)
		if !ok {
			return nil, nil, errors.New("Expected string")
		}
		return s, s, nil
	}
}

var errExpectedNumber = errors.New("Expected number")

func toDecimal(raw any) (decimal.Decimal, error) {
	switch n := raw.(type) {
	case json.Number:
		return parseDecimal(n.String())
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Decimal{}, errExpectedNumber
		}
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case string:
		return parseDecimal(n)
	default:
		return decimal.Decimal{}, errExpectedNumber
	}
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, errExpectedNumber
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, errExpectedNumber
	}
	return d, nil
}

// extremeExponent bounds the magnitudes expanded for the rule engine. Beyond
// it float64 is already zero or infinite.
const extremeExponent = 400

// ruleFloat is the float64 the rule engine compares against, computed without
// expanding exponents such as 1e1000000000.
func ruleFloat(d decimal.Decimal) float64 {
	if d.IsZero() {
		return 0
	}
	switch magnitude := int64(d.Exponent()) + int64(d.NumDigits()); {
	case magnitude > extremeExponent:
		return math.Inf(d.Sign())
	case magnitude < -extremeExponent:
		return 0
	}
	return d.InexactFloat64()
}

// withinPlaces reports whether d has no more than places significant
// fractional digits. Trailing zeros do not count.
func withinPlaces(d decimal.Decimal, places int32) bool {
	if d.Exponent() >= -places {
		return true
	}
	if int64(-places)-int64(d.Exponent()) > int64(d.NumDigits()) {
		return d.IsZero()
	}
	return d.Equal(d.Truncate(places))
}

// ParseDate accepts YYYY-MM-DD or RFC 3339 and returns the calendar date at
// midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
