package entity

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ToCents convierte un monto en unidades de moneda a centavos (redondeo half away from zero).
func ToCents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// FromCents convierte centavos a decimal con 2 posiciones.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}
