// Package purchase holds the pure purchase rules: derived totals, the monthly
// spend aggregation and the input schemas the handlers validate against.
package purchase

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eaglebank/purchase-service/internal/schema"
	"github.com/eaglebank/purchase-service/internal/security"
)

// Unit measures accepted for quantity.
const (
	UnitPiece      = "un"
	UnitKilogram   = "kg"
	UnitGram       = "g"
	UnitLiter      = "L"
	UnitMilliliter = "mL"
)

// Grants required per operation.
var (
	GrantCreate = security.Grant{Securable: security.Purchase, Permission: security.Create}
	GrantRead   = security.Grant{Securable: security.Purchase, Permission: security.Read}
	GrantUpdate = security.Grant{Securable: security.Purchase, Permission: security.Update}
	GrantDelete = security.Grant{Securable: security.Purchase, Permission: security.Delete}
)

// Input field names.
const (
	FieldID           = "id"
	FieldProductName  = "productName"
	FieldQuantity     = "quantity"
	FieldUnitMeasure  = "unitMeasure"
	FieldUnitPrice    = "unitPrice"
	FieldPurchaseDate = "purchaseDate"
)

// Quantity and unit price must fit the NUMERIC(18,4) columns exactly. Their
// product then fits total_price, NUMERIC(38,8), without rounding.
const (
	AmountPlaces = 4
	AmountLimit  = "100000000000000"
)

const amountRules = "gt=0,lt=" + AmountLimit

var IDSchema = schema.Object(
	schema.Field{
		Name:      FieldID,
		Type:      schema.String,
		Required:  true,
		Rules:     "uuid",
		Normalize: strings.ToLower,
		Messages:  map[string]string{"uuid": "Invalid purchase id"},
	},
)

var BodySchema = schema.Object(
	schema.Field{Name: FieldProductName, Type: schema.String, Required: true, Rules: "min=2,max=100"},
	schema.Field{Name: FieldQuantity, Type: schema.Decimal, Required: true, Rules: amountRules, MaxPlaces: AmountPlaces},
	schema.Field{
		Name:     FieldUnitMeasure,
		Type:     schema.String,
		Required: true,
		Rules:    "oneof=" + UnitPiece + " " + UnitKilogram + " " + UnitGram + " " + UnitLiter + " " + UnitMilliliter,
	},
	schema.Field{Name: FieldUnitPrice, Type: schema.Decimal, Required: true, Rules: amountRules, MaxPlaces: AmountPlaces},
	schema.Field{Name: FieldPurchaseDate, Type: schema.Date, Required: true, Rules: "notfuture"},
)

// TotalPrice is quantity times unit price.
func TotalPrice(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice)
}

// Spend is anything carrying a purchase date and a total.
type Spend interface {
	PurchasedOn() time.Time
	Total() decimal.Decimal
}

// MonthlySpend sums the totals of items dated in the same UTC year and month
// as now.
func MonthlySpend[T Spend](items []T, now time.Time) decimal.Decimal {
	now = now.UTC()
	sum := decimal.Zero
	for _, item := range items {
		d := item.PurchasedOn().UTC()
		if d.Year() == now.Year() && d.Month() == now.Month() {
			sum = sum.Add(item.Total())
		}
	}
	return sum
}
