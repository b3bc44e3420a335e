package ingest

import (
	"context"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/repository"
)

// DocumentExtractor convierte el contenido de un XML en FiscalDocument.
type DocumentExtractor interface {
	Extract(content []byte, fileName string) (*entity.FiscalDocument, error)
}

// ImportTxRunner ejecuta fn dentro de una transacción con los repos del documento.
// Cabecera y cuotas se confirman juntas o no se confirma nada.
type ImportTxRunner interface {
	RunImport(ctx context.Context, fn func(
		payableRepo repository.PayableRepository,
		installmentRepo repository.InstallmentRepository,
	) error) error
}

// Progress avance del lote, reportado después de cada archivo.
type Progress struct {
	Done    int
	Total   int
	Percent int
	File    string
	Outcome entity.Outcome
}

// ProgressFunc callback de progreso; puede ser nil.
type ProgressFunc func(Progress)
