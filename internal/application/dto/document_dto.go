package dto

import "github.com/shopspring/decimal"

// InstallmentDraft cuota leída del documento.
type InstallmentDraft struct {
	Sequence int             `json:"sequence"`
	Label    string          `json:"label,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	DueDate  *string         `json:"due_date"`
}

// ObligationDraftResponse nueva obligación extraída, pendiente de revisión.
type ObligationDraftResponse struct {
	DocumentNumber    string             `json:"document_number"`
	AccessKey         string             `json:"access_key"`
	IssuerTaxID       string             `json:"issuer_tax_id"`
	IssuerName        string             `json:"issuer_name"`
	IssuerTradeName   string             `json:"issuer_trade_name"`
	TotalAmount       decimal.Decimal    `json:"total_amount"`
	IssueDate         *string            `json:"issue_date"`
	Description       string             `json:"description"`
	SuggestedCategory string             `json:"suggested_category"`
	Installments      []InstallmentDraft `json:"installments"`
}

// PaymentDraftResponse datos del comprobante de pago.
type PaymentDraftResponse struct {
	Amount        decimal.Decimal `json:"amount"`
	PaidAt        *string         `json:"paid_at"`
	Interest      decimal.Decimal `json:"interest"`
	Discount      decimal.Decimal `json:"discount"`
	Penalty       decimal.Decimal `json:"penalty"`
	ReferenceHint string          `json:"reference_hint,omitempty"`
}

// SuggestionResponse registro existente sugerido.
type SuggestionResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MatchedBy string `json:"matched_by"`
}

// DuplicateResponse resultado de la verificación de duplicados del borrador.
type DuplicateResponse struct {
	IsDuplicate bool   `json:"is_duplicate"`
	MatchedOn   string `json:"matched_on,omitempty"`
}

// CandidateResponse cuota abierta que puede corresponder al pago.
type CandidateResponse struct {
	InstallmentID  string          `json:"installment_id"`
	DocumentID     string          `json:"document_id"`
	SequenceNumber int             `json:"sequence_number"`
	AmountCents    int64           `json:"amount_cents"`
	DueDate        string          `json:"due_date"`
	DocumentNumber string          `json:"document_number"`
	Description    string          `json:"description"`
	VendorName     string          `json:"vendor_name"`
	Deviation      decimal.Decimal `json:"deviation"`
}

// PDFInfoResponse datos del PDF inspeccionado localmente.
type PDFInfoResponse struct {
	Pages   int  `json:"pages"`
	HasText bool `json:"has_text"`
}

// DraftResponse borrador para revisión humana. Nada se guardó todavía.
type DraftResponse struct {
	Intent             string                   `json:"intent"`
	Confidence         int                      `json:"confidence"`
	Notes              []string                 `json:"notes"`
	Obligation         *ObligationDraftResponse `json:"obligation,omitempty"`
	Payment            *PaymentDraftResponse    `json:"payment,omitempty"`
	PDF                *PDFInfoResponse         `json:"pdf,omitempty"`
	VendorSuggestion   *SuggestionResponse      `json:"vendor_suggestion,omitempty"`
	CategorySuggestion *SuggestionResponse      `json:"category_suggestion,omitempty"`
	Duplicate          *DuplicateResponse       `json:"duplicate,omitempty"`
	Candidates         []CandidateResponse      `json:"candidates,omitempty"`
	SelectedCandidate  string                   `json:"selected_candidate,omitempty"`
}

// ReviewedInstallmentRequest cuota revisada por el usuario.
type ReviewedInstallmentRequest struct {
	AmountCents int64  `json:"amount_cents"`
	DueDate     string `json:"due_date"` // AAAA-MM-DD, vacío = automático
}

// CommitObligationRequest borrador NEW_OBLIGATION aprobado.
type CommitObligationRequest struct {
	DocumentNumber  string                       `json:"document_number"`
	AccessKey       string                       `json:"access_key"`
	IssuerTaxID     string                       `json:"issuer_tax_id"`
	IssuerName      string                       `json:"issuer_name"`
	IssuerTradeName string                       `json:"issuer_trade_name"`
	TotalCents      int64                        `json:"total_cents"`
	IssueDate       string                       `json:"issue_date"`
	Description     string                       `json:"description"`
	CategoryID      string                       `json:"category_id"`
	BranchID        string                       `json:"branch_id"`
	Installments    []ReviewedInstallmentRequest `json:"installments"`
	SplitCount      int                          `json:"split_count"`
	SourceFile      string                       `json:"source_file"`
}

// CommitObligationResponse documento registrado a partir del borrador.
type CommitObligationResponse struct {
	DocumentID    string                `json:"document_id"`
	ReferenceKey  string                `json:"reference_key"`
	Description   string                `json:"description"`
	TotalCents    int64                 `json:"total_cents"`
	VendorID      string                `json:"vendor_id"`
	VendorCreated bool                  `json:"vendor_created"`
	Installments  []InstallmentResponse `json:"installments"`
}
