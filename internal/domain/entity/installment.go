package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment cuota de un documento por pagar.
type Installment struct {
	ID             string
	DocumentID     string
	SequenceNumber int
	AmountCents    int64
	DueDate        time.Time
	Paid           bool
	PaidAt         *time.Time
	PaidCents      int64
	InterestCents  int64
	DiscountCents  int64
	PenaltyCents   int64
	CreatedAt      time.Time
}

// Settlement datos de la baixa (pago) de una cuota.
type Settlement struct {
	InstallmentID string
	PaidCents     int64
	InterestCents int64
	DiscountCents int64
	PenaltyCents  int64
	PaidAt        time.Time
}

// PrincipalCents monto original que cubre el pago: pagado - intereses - multa + descuento.
func (s Settlement) PrincipalCents() int64 {
	return s.PaidCents - s.InterestCents - s.PenaltyCents + s.DiscountCents
}

// SettlementCandidate cuota abierta que puede corresponder a un comprobante de pago.
type SettlementCandidate struct {
	Installment    Installment
	DocumentNumber string
	Description    string
	VendorName     string
	Deviation      decimal.Decimal // |monto - objetivo| / objetivo
}
