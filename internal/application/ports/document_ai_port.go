package ports

import (
	"context"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
)

// DocumentInput archivo (imagen o PDF) enviado al servicio de extracción.
type DocumentInput struct {
	FileName string
	MIMEType string
	Content  []byte
}

// IsPDF indica si el archivo es PDF.
func (in DocumentInput) IsPDF() bool {
	return in.MIMEType == "application/pdf"
}

// DocumentExtractionService define el puerto de salida hacia el servicio de reconocimiento
// (función edge, Anthropic o Gemini). El adaptador entrega el resultado ya normalizado:
// intent válido, confianza 0..100 y montos en decimal.
// El contexto debe llevar un timeout para evitar bloqueos en llamadas externas.
type DocumentExtractionService interface {
	ExtractDocument(ctx context.Context, in DocumentInput) (*entity.ExtractionResult, error)
}

// PDFInfo datos básicos de un PDF obtenidos localmente.
type PDFInfo struct {
	Pages   int
	HasText bool
}

// PDFInspector inspecciona un PDF antes de enviarlo al servicio externo.
type PDFInspector interface {
	Inspect(content []byte) (*PDFInfo, error)
}

// FileArchiver guarda una copia del archivo fuente. Debe ser idempotente por objectName.
type FileArchiver interface {
	Archive(ctx context.Context, objectName string, content []byte) error
}
