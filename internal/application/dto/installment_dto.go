package dto

import "time"

// InstallmentResponse cuota persistida.
type InstallmentResponse struct {
	ID             string     `json:"id"`
	DocumentID     string     `json:"document_id"`
	SequenceNumber int        `json:"sequence_number"`
	AmountCents    int64      `json:"amount_cents"`
	DueDate        string     `json:"due_date"`
	Paid           bool       `json:"paid"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	PaidCents      int64      `json:"paid_cents,omitempty"`
	InterestCents  int64      `json:"interest_cents,omitempty"`
	DiscountCents  int64      `json:"discount_cents,omitempty"`
	PenaltyCents   int64      `json:"penalty_cents,omitempty"`
}

// SettleRequest baixa de una cuota confirmada por el usuario.
type SettleRequest struct {
	PaidCents     int64  `json:"paid_cents"`
	InterestCents int64  `json:"interest_cents"`
	DiscountCents int64  `json:"discount_cents"`
	PenaltyCents  int64  `json:"penalty_cents"`
	PaidAt        string `json:"paid_at"` // AAAA-MM-DD, vacío = hoy
}

// SplitRequest vista previa de división pareja.
type SplitRequest struct {
	TotalCents int64  `json:"total_cents"`
	Count      int    `json:"count"`
	IssueDate  string `json:"issue_date"`
}

// SplitEntry cuota de la vista previa.
type SplitEntry struct {
	Sequence    int    `json:"sequence"`
	AmountCents int64  `json:"amount_cents"`
	DueDate     string `json:"due_date"`
}

// SplitResponse cronograma propuesto; no se persiste.
type SplitResponse struct {
	TotalCents   int64        `json:"total_cents"`
	Installments []SplitEntry `json:"installments"`
}
