package entity

import "time"

// Vendor proveedor (fornecedor) identificado por CNPJ/CPF.
// El pipeline lo crea cuando no existe y nunca lo actualiza.
type Vendor struct {
	ID        string
	TaxID     string // solo dígitos
	LegalName string
	TradeName string
	CreatedAt time.Time
}
