package dto

import "time"

// FileResultResponse resultado de un archivo del lote.
type FileResultResponse struct {
	FileName         string `json:"file_name"`
	State            string `json:"state"`
	Outcome          string `json:"outcome"`
	Kind             string `json:"kind,omitempty"`
	Message          string `json:"message,omitempty"`
	ReferenceKey     string `json:"reference_key,omitempty"`
	DocumentNumber   string `json:"document_number,omitempty"`
	DocumentID       string `json:"document_id,omitempty"`
	VendorID         string `json:"vendor_id,omitempty"`
	VendorCreated    bool   `json:"vendor_created"`
	InstallmentCount int    `json:"installment_count"`
	TotalCents       int64  `json:"total_cents"`
	MatchedOn        string `json:"matched_on,omitempty"`
}

// BatchSummaryResponse resumen de una importación de NF-e.
type BatchSummaryResponse struct {
	BatchID    string               `json:"batch_id"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Total      int                  `json:"total"`
	Committed  int                  `json:"committed"`
	Duplicates int                  `json:"duplicates"`
	Failed     int                  `json:"failed"`
	Files      []FileResultResponse `json:"files"`
}
