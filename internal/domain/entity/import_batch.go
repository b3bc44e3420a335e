package entity

import "time"

// FileState estado de un archivo dentro del lote de importación.
type FileState string

const (
	StatePending              FileState = "PENDING"
	StateExtracting           FileState = "EXTRACTING"
	StateExtractFailed        FileState = "EXTRACT_FAILED"
	StateExtracted            FileState = "EXTRACTED"
	StateDuplicateCheck       FileState = "DUPLICATE_CHECK"
	StateSkippedDuplicate     FileState = "SKIPPED_DUPLICATE"
	StateVendorResolution     FileState = "VENDOR_RESOLUTION"
	StateInstallmentSynthesis FileState = "INSTALLMENT_SYNTHESIS"
	StatePersisting           FileState = "PERSISTING"
	StateCommitted            FileState = "COMMITTED"
	StatePersistFailed        FileState = "PERSIST_FAILED"
)

// Terminal indica si el estado es final.
func (s FileState) Terminal() bool {
	switch s {
	case StateExtractFailed, StateSkippedDuplicate, StateCommitted, StatePersistFailed:
		return true
	}
	return false
}

// Outcome resultado agregado de un archivo.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)

// ImportFile archivo de entrada de un lote.
type ImportFile struct {
	Name    string
	Content []byte
}

// FileResult resultado por archivo.
type FileResult struct {
	FileName         string
	State            FileState
	Outcome          Outcome
	Kind             string // código de error o DUPLICATE
	Message          string
	ReferenceKey     string
	DocumentNumber   string
	DocumentID       string
	VendorID         string
	VendorCreated    bool
	InstallmentCount int
	TotalCents       int64
	MatchedOn        string
}

// BatchSummary resumen del lote en el orden de entrada.
type BatchSummary struct {
	BatchID    string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Committed  int
	Duplicates int
	Failed     int
	Files      []FileResult
}

// Add acumula un resultado y actualiza los contadores.
func (b *BatchSummary) Add(r FileResult) {
	b.Files = append(b.Files, r)
	switch r.Outcome {
	case OutcomeCommitted:
		b.Committed++
	case OutcomeDuplicate:
		b.Duplicates++
	default:
		b.Failed++
	}
}
