package purchase_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eaglebank/purchase-service/internal/clock"
	"github.com/eaglebank/purchase-service/internal/models"
	"github.com/eaglebank/purchase-service/internal/purchase"
	"github.com/eaglebank/purchase-service/internal/schema"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func view(total string, on time.Time) models.PurchaseView {
	return models.PurchaseView{
		TotalPrice:   models.Decimal{Decimal: dec(total)},
		PurchaseDate: models.Date{Time: on},
	}
}

func TestTotalPrice(t *testing.T) {
	assert.True(t, dec("11").Equal(purchase.TotalPrice(dec("2"), dec("5.50"))))
	assert.Equal(t, "0.3", purchase.TotalPrice(dec("0.1"), dec("3")).String())
}

func TestMonthlySpend(t *testing.T) {
	milk := view("11.00", day(2024, time.January, 10))
	items := []models.PurchaseView{
		milk,
		view("4.25", day(2024, time.January, 31)),
		view("100", day(2023, time.January, 15)),
		view("7", day(2024, time.February, 1)),
	}

	jan := purchase.MonthlySpend(items, time.Date(2024, time.January, 20, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, "15.25", jan.String())

	feb := purchase.MonthlySpend([]models.PurchaseView{milk}, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, feb.IsZero())

	assert.True(t, purchase.MonthlySpend([]models.PurchaseView(nil), time.Now()).IsZero())
}

func TestBodySchema(t *testing.T) {
	v := schema.NewValidator(clock.Fixed(time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)))

	values, errs := v.Validate(map[string]any{
		"productName":  "Milk",
		"quantity":     json.Number("2"),
		"unitMeasure":  "L",
		"unitPrice":    json.Number("5.50"),
		"purchaseDate": "2024-01-10",
		"totalPrice":   json.Number("1"),
	}, purchase.BodySchema)
	require.Empty(t, errs)
	assert.NotContains(t, values, "totalPrice")
	assert.Equal(t, "11", purchase.TotalPrice(values.Decimal("quantity"), values.Decimal("unitPrice")).String())

	_, errs = v.Validate(map[string]any{
		"productName":  "Milk",
		"quantity":     "abc",
		"unitMeasure":  "lb",
		"unitPrice":    json.Number("-1"),
		"purchaseDate": "2024-01-11",
	}, purchase.BodySchema)
	fields := map[string]string{}
	for _, e := range errs {
		fields[e.Field] = e.Message
	}
	assert.Len(t, fields, 4)
	assert.Equal(t, "Date cannot be in the future", fields["purchaseDate"])
	assert.Equal(t, "Must be one of: un, kg, g, L, mL", fields["unitMeasure"])
}

func TestIDSchema(t *testing.T) {
	v := schema.NewValidator(clock.System())

	_, errs := v.Validate(map[string]any{"id": "123"}, purchase.IDSchema)
	require.Len(t, errs, 1)
	assert.Equal(t, "Invalid purchase id", errs[0].Message)
}

func TestBodySchema_AmountBounds(t *testing.T) {
	v := schema.NewValidator(clock.Fixed(time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)))
	body := func(quantity any) map[string]any {
		return map[string]any{
			"productName":  "Rice",
			"quantity":     quantity,
			"unitMeasure":  "kg",
			"unitPrice":    json.Number("1.2345"),
			"purchaseDate": "2024-01-10",
		}
	}

	tests := []struct {
		name     string
		quantity any
		wantType string
	}{
		{"smallest step", json.Number("0.0001"), ""},
		{"largest storable", json.Number("99999999999999.9999"), ""},
		{"below smallest step", json.Number("0.00001"), "places"},
		{"excess scale", json.Number("1.23456"), "places"},
		{"excess scale as string", "1.23456", "places"},
		{"too many integer digits", json.Number("123456789012345678"), "lt"},
		{"overflows float", json.Number("1e400"), "lt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, errs := v.Validate(body(tt.quantity), purchase.BodySchema)

			if tt.wantType == "" {
				require.Empty(t, errs)
				total := purchase.TotalPrice(values.Decimal("quantity"), values.Decimal("unitPrice"))
				assert.True(t, total.Equal(total.Truncate(2*purchase.AmountPlaces)), "total %s exceeds column scale", total)
				assert.True(t, total.LessThan(dec("1e28")), "total %s exceeds column precision", total)
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, "quantity", errs[0].Field)
			assert.Equal(t, tt.wantType, errs[0].Type)
		})
	}
}

func TestIDSchema_UppercaseIsNormalized(t *testing.T) {
	v := schema.NewValidator(clock.System())

	values, errs := v.Validate(map[string]any{"id": "3F1C2B9E-8A4D-4C7E-9F10-2D3B4C5D6E7F"}, purchase.IDSchema)

	require.Empty(t, errs)
	assert.Equal(t, "3f1c2b9e-8a4d-4c7e-9f10-2d3b4c5d6e7f", values.String(purchase.FieldID))
}
