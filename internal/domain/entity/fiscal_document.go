package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// NumberSource indica de dónde salió el número del documento.
type NumberSource string

const (
	NumberFromXML       NumberSource = "xml"
	NumberFromAccessKey NumberSource = "access_key"
	NumberFromFilename  NumberSource = "filename"
	NumberFromReview    NumberSource = "review"
)

// RawInstallment cuota tal como aparece en el documento (cobr/dup o extracción IA).
type RawInstallment struct {
	Sequence int
	Label    string // nDup
	Amount   decimal.Decimal
	DueDate  *time.Time
}

// FiscalDocument resultado de la extracción de una NF-e; no se persiste tal cual.
type FiscalDocument struct {
	DocumentNumber  string
	AccessKey       string
	NumberSource    NumberSource
	IssuerTaxID     string
	IssuerLegalName string
	IssuerTradeName string
	TotalAmount     decimal.Decimal
	IssueDate       time.Time
	Installments    []RawInstallment
	SourceFile      string
}

// ReferenceKey clave de deduplicación: chave de acesso si existe, si no el número.
func (d *FiscalDocument) ReferenceKey() string {
	if d.AccessKey != "" {
		return d.AccessKey
	}
	return d.DocumentNumber
}

// TotalCents total en centavos.
func (d *FiscalDocument) TotalCents() int64 {
	return ToCents(d.TotalAmount)
}
