package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Values is the normalised output of a successful validation. Accessors return
// the zero value for keys that were optional and absent.
type Values map[string]any

func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

func (v Values) Decimal(name string) decimal.Decimal {
	d, _ := v[name].(decimal.Decimal)
	return d
}

func (v Values) Date(name string) time.Time {
	t, _ := v[name].(time.Time)
	return t
}

// Merge returns a new Values holding v overlaid with other.
func (v Values) Merge(other Values) Values {
	out := make(Values, len(v)+len(other))
	for k, val := range v {
		out[k] = val
	}
	for k, val := range other {
		out[k] = val
	}
	return out
}
