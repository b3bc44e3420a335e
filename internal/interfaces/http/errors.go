package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/dto"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
)

var statusByKind = map[string]int{
	domain.KindInvalidInput:            fiber.StatusBadRequest,
	domain.KindMalformedDocument:       fiber.StatusUnprocessableEntity,
	domain.KindMissingInvoiceStructure: fiber.StatusUnprocessableEntity,
	domain.KindUnidentifiableDocument:  fiber.StatusUnprocessableEntity,
	domain.KindMissingIssuerData:       fiber.StatusUnprocessableEntity,
	domain.KindInvalidAmount:           fiber.StatusUnprocessableEntity,
	domain.KindUnsupportedMedia:        fiber.StatusUnsupportedMediaType,
	domain.KindPayloadTooLarge:         fiber.StatusRequestEntityTooLarge,
	domain.KindExtractionService:       fiber.StatusBadGateway,
	domain.KindDuplicate:               fiber.StatusConflict,
	domain.KindConflict:                fiber.StatusConflict,
	domain.KindNotFound:                fiber.StatusNotFound,
}

// writeError responde con el código estable del error y el estado HTTP correspondiente.
func writeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return c.Status(fiber.StatusGatewayTimeout).JSON(dto.ErrorResponse{
			Code: "TIMEOUT", Message: "el servicio externo tardó demasiado; intenta de nuevo",
		})
	}
	kind := domain.ErrorKind(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: kind, Message: err.Error()})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
