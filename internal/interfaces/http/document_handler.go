package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/dto"
	"github.com/jhoicas/fiscal-ingest-api/internal/application/ingest"
	"github.com/jhoicas/fiscal-ingest-api/internal/application/ports"
)

// DocumentHandler extracción asistida de imágenes/PDF y confirmación de borradores.
type DocumentHandler struct {
	svc *ingest.ExtractionService
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(svc *ingest.ExtractionService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Extract godoc
// @Summary      Extraer datos de una imagen o PDF
// @Description  Devuelve un borrador para revisión: NEW_OBLIGATION con sugerencias de proveedor,
//               categoría y duplicado, o SETTLEMENT con cuotas abiertas candidatas (±15%).
//               No persiste nada.
// @Tags         documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "imagen (png, jpeg, webp) o PDF"
// @Success      200  {object}  dto.DraftResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      413  {object}  dto.ErrorResponse
// @Failure      415  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/documents/extract [post]
func (h *DocumentHandler) Extract(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "VALIDATION", "falta el archivo (campo file)")
	}
	content, err := readPart(fh)
	if err != nil {
		return badRequest(c, "INVALID_BODY", fmt.Sprintf("no se pudo leer %s", fh.Filename))
	}
	draft, err := h.svc.Extract(c.Context(), ports.DocumentInput{
		FileName: fh.Filename,
		MIMEType: fh.Header.Get(fiber.HeaderContentType),
		Content:  content,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toDraftResponse(draft))
}

// Commit registra un borrador NEW_OBLIGATION revisado.
// POST /api/documents/commit
func (h *DocumentHandler) Commit(c *fiber.Ctx) error {
	var req dto.CommitObligationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo de la petición inválido")
	}
	in, err := toReviewedObligation(req)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.svc.CommitObligation(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toCommitResponse(res))
}
