package entity

import "time"

// DocumentSource origen del documento por pagar.
type DocumentSource string

const (
	SourceXML DocumentSource = "xml"
	SourceAI  DocumentSource = "ai"
)

// PayableDocument cabecera de una obligación por pagar (conta a pagar).
type PayableDocument struct {
	ID               string
	VendorID         string
	ReferenceKey     string // chave o número; único
	DocumentNumber   string
	AccessKey        string
	Description      string
	TotalCents       int64
	InstallmentCount int
	IssueDate        time.Time
	CategoryID       string // vacío = NULL
	BranchID         string // vacío = NULL
	Source           DocumentSource
	SourceFile       string
	CreatedAt        time.Time
}
