package market

import "github.com/shopspring/decimal"

// Decimal places kept for stored values.
const (
	PricePrecision    = 3
	QuantityPrecision = 3
	TotalPrecision    = 2
)

// RoundPrice rounds a unit price half away from zero.
func RoundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(PricePrecision)
}

// RoundQuantity rounds a kWh quantity half away from zero.
func RoundQuantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityPrecision)
}

// RoundTotal rounds a monetary total half away from zero.
func RoundTotal(d decimal.Decimal) decimal.Decimal {
	return d.Round(TotalPrecision)
}

// Total is the charge for amount kWh at price per kWh.
func Total(price, amount decimal.Decimal) decimal.Decimal {
	return RoundTotal(price.Mul(amount))
}
