package batch

import (
	"strings"

	"github.com/shopspring/decimal"

	"sku-batch/internal/api"
)

// vatDivisor backs German VAT (19%) out of a gross selling price.
var vatDivisor = decimal.RequireFromString("1.19")

var oneHundred = decimal.NewFromInt(100)

// Detail field names the financial derivation reads from the product-detail
// snapshot. Price and shipping come from the listing draft instead.
const (
	FieldTotalCostNet   = "Total Cost Net"
	FieldOpValue        = "OP"
	FieldPaymentFee     = "Payment Fee"
	FieldCommissionRate = "Sales Commission Rate"
)

// ProfitInputs are free-form strings; every one may be absent or malformed
// and coerces to zero.
type ProfitInputs struct {
	TotalCostNet        string
	OpValue             string // reference cost, tracked but not part of the formula
	PaymentFee          string
	SalesCommissionRate string
	SellingPrice        string
	ShippingCostsNet    string
}

// ProfitResult carries the derived metrics.
type ProfitResult struct {
	NetProfit decimal.Decimal
	Margin    decimal.Decimal // percent; exactly 0 when cost is 0 or negative
}

// Coerce parses a free-form numeric string. Everything except digits,
// comma, dot and minus is stripped; comma is the decimal separator (dots
// are treated as thousands separators when a comma is present). Anything
// unparseable coerces to zero, never an error.
func Coerce(s string) decimal.Decimal {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' || r == ',' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// NetProfit derives net profit and margin:
//
//	netProfit = price/1.19 - price*commission - paymentFee - shipping - cost
//	margin    = cost > 0 ? netProfit/cost*100 : 0
//
// The function is total: any input may be missing or garbage.
func NetProfit(in ProfitInputs) ProfitResult {
	price := Coerce(in.SellingPrice)
	cost := Coerce(in.TotalCostNet)
	fee := Coerce(in.PaymentFee)
	rate := Coerce(in.SalesCommissionRate)
	shipping := Coerce(in.ShippingCostsNet)

	profit := price.Div(vatDivisor).
		Sub(price.Mul(rate)).
		Sub(fee).
		Sub(shipping).
		Sub(cost)

	margin := decimal.Zero
	if cost.IsPositive() {
		margin = profit.Div(cost).Mul(oneHundred)
	}
	return ProfitResult{NetProfit: profit, Margin: margin}
}

// ProfitForEntry assembles the inputs from a cache entry: costs, fee and
// commission from the detail snapshot, price and shipping from the listing
// draft. Absent slices degrade to zeroes.
func ProfitForEntry(e Entry) ProfitResult {
	in := ProfitInputs{}
	if e.Details != nil {
		in.TotalCostNet, _ = DetailValue(e.Details, FieldTotalCostNet)
		in.OpValue, _ = DetailValue(e.Details, FieldOpValue)
		in.PaymentFee, _ = DetailValue(e.Details, FieldPaymentFee)
		in.SalesCommissionRate, _ = DetailValue(e.Details, FieldCommissionRate)
	}
	if e.Listing != nil {
		in.SellingPrice = e.Listing.Price
		in.ShippingCostsNet = e.Listing.ShippingCostsNet
	}
	return NetProfit(in)
}

// DetailValue finds the first field with the given name across all
// categories and returns its value.
func DetailValue(d *api.ProductDetails, name string) (string, bool) {
	if d == nil {
		return "", false
	}
	for _, cat := range d.Categories {
		for _, f := range cat.Fields {
			if f.Name == name {
				return f.Value, true
			}
		}
	}
	return "", false
}
