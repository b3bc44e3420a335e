package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/ingest"
	"github.com/jhoicas/fiscal-ingest-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Orchestrator   *ingest.Orchestrator
	Extraction     *ingest.ExtractionService
	MaxUploadBytes int64
	Log            *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Importación XML
	importHandler := NewImportHandler(deps.Orchestrator, deps.MaxUploadBytes, deps.Log)
	api.Post("/imports/nfe", importHandler.ImportNFe)

	// Imágenes y PDF: borrador → revisión → confirmación
	documents := api.Group("/documents")
	documentHandler := NewDocumentHandler(deps.Extraction)
	documents.Post("/extract", documentHandler.Extract)
	documents.Post("/commit", documentHandler.Commit)

	installments := api.Group("/installments")
	installmentHandler := NewInstallmentHandler(deps.Extraction)
	installments.Post("/split", installmentHandler.Split)
	installments.Post("/:id/settle", installmentHandler.Settle)
}
