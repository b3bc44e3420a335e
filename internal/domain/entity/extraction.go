package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtractionIntent qué representa el documento leído por el servicio de extracción.
type ExtractionIntent string

const (
	IntentNewObligation ExtractionIntent = "NEW_OBLIGATION"
	IntentSettlement    ExtractionIntent = "SETTLEMENT"
)

// Valid indica si el intent es conocido.
func (i ExtractionIntent) Valid() bool {
	return i == IntentNewObligation || i == IntentSettlement
}

// ObligationDraft nueva obligación extraída de una imagen/PDF, pendiente de revisión humana.
type ObligationDraft struct {
	DocumentNumber    string
	AccessKey         string
	IssuerTaxID       string
	IssuerName        string
	IssuerTradeName   string
	TotalAmount       decimal.Decimal
	IssueDate         *time.Time
	Description       string
	SuggestedCategory string
	Installments      []RawInstallment
}

// PaymentInfo datos de un comprobante de pago.
type PaymentInfo struct {
	Amount        decimal.Decimal
	PaidAt        *time.Time
	Interest      decimal.Decimal
	Discount      decimal.Decimal
	Penalty       decimal.Decimal
	ReferenceHint string
}

// ExtractionResult resultado normalizado del servicio externo.
// Solo uno de Obligation / Payment está presente, según Intent.
type ExtractionResult struct {
	Intent     ExtractionIntent
	Confidence int // 0..100
	Notes      []string
	Obligation *ObligationDraft
	Payment    *PaymentInfo
}
