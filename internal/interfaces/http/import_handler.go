package http

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/dto"
	"github.com/jhoicas/fiscal-ingest-api/internal/application/ingest"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/internal/infrastructure/report"
	"github.com/jhoicas/fiscal-ingest-api/pkg/logger"
)

const (
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePDF  = "application/pdf"
)

// ImportHandler importación de lotes de NF-e en XML.
type ImportHandler struct {
	orchestrator *ingest.Orchestrator
	maxBytes     int64
	log          *logger.Logger
}

// NewImportHandler construye el handler.
func NewImportHandler(orchestrator *ingest.Orchestrator, maxBytes int64, log *logger.Logger) *ImportHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ImportHandler{orchestrator: orchestrator, maxBytes: maxBytes, log: log}
}

// ImportNFe godoc
// @Summary      Importar lote de NF-e
// @Description  Procesa los XML en orden, uno a la vez. Un archivo con error no aborta el lote.
//               Con format=xlsx o format=pdf devuelve el reporte del lote en vez del JSON.
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Param        files   formData  file    true   "archivos XML (uno o más)"
// @Param        format  query     string  false  "json (por defecto), xlsx o pdf"
// @Success      200  {object}  dto.BatchSummaryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      413  {object}  dto.ErrorResponse
// @Router       /api/imports/nfe [post]
func (h *ImportHandler) ImportNFe(c *fiber.Ctx) error {
	format := strings.ToLower(c.Query("format", "json"))
	if format != "json" && format != "xlsx" && format != "pdf" {
		return badRequest(c, "VALIDATION", "format debe ser json, xlsx o pdf")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "INVALID_BODY", "se esperaba multipart/form-data")
	}
	headers := append(form.File["files"], form.File["files[]"]...)
	if len(headers) == 0 {
		return badRequest(c, "VALIDATION", "no se recibieron archivos (campo files)")
	}

	files := make([]entity.ImportFile, 0, len(headers))
	for _, fh := range headers {
		if h.maxBytes > 0 && fh.Size > h.maxBytes {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{
				Code:    domain.KindPayloadTooLarge,
				Message: fmt.Sprintf("%s excede el tamaño máximo de %d bytes", fh.Filename, h.maxBytes),
			})
		}
		content, err := readPart(fh)
		if err != nil {
			return badRequest(c, "INVALID_BODY", fmt.Sprintf("no se pudo leer %s", fh.Filename))
		}
		files = append(files, entity.ImportFile{Name: fh.Filename, Content: content})
	}

	summary := h.orchestrator.Run(c.Context(), files, func(p ingest.Progress) {
		h.log.Debug().Int("percent", p.Percent).Str("file", p.File).Str("outcome", string(p.Outcome)).Msg("[IMPORT] progreso")
	})

	switch format {
	case "xlsx":
		data, err := report.BatchXLSX(summary)
		if err != nil {
			return writeError(c, err)
		}
		c.Attachment("importacion-" + summary.BatchID + ".xlsx")
		c.Set(fiber.HeaderContentType, mimeXLSX)
		return c.Send(data)
	case "pdf":
		data, err := report.BatchPDF(summary)
		if err != nil {
			return writeError(c, err)
		}
		c.Attachment("importacion-" + summary.BatchID + ".pdf")
		c.Set(fiber.HeaderContentType, mimePDF)
		return c.Send(data)
	}
	return c.JSON(toBatchResponse(summary))
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
