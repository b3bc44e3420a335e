package pdfinfo

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/ports"
)

var _ ports.PDFInspector = (*Inspector)(nil)

// maxTextPages páginas revisadas para decidir si hay capa de texto.
const maxTextPages = 3

// Inspector lee un PDF en memoria para contar páginas y detectar capa de texto
// antes de enviarlo al servicio de extracción.
type Inspector struct{}

// New construye el inspector.
func New() *Inspector { return &Inspector{} }

// Inspect devuelve error si el PDF no se puede abrir.
func (Inspector) Inspect(content []byte) (info *ports.PDFInfo, err error) {
	// el parser entra en pánico con algunos archivos truncados
	defer func() {
		if r := recover(); r != nil {
			info, err = nil, fmt.Errorf("pdf ilegible: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("abrir pdf: %w", err)
	}
	info = &ports.PDFInfo{Pages: reader.NumPage()}
	if info.Pages == 0 {
		return nil, fmt.Errorf("pdf sin páginas")
	}

	for i := 1; i <= info.Pages && i <= maxTextPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			info.HasText = true
			break
		}
	}
	return info, nil
}
