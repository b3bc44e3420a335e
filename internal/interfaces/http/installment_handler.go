package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/dto"
	"github.com/jhoicas/fiscal-ingest-api/internal/application/ingest"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/payable"
)

// InstallmentHandler baixa de cuotas y vista previa de divisiones.
type InstallmentHandler struct {
	svc *ingest.ExtractionService
}

// NewInstallmentHandler construye el handler.
func NewInstallmentHandler(svc *ingest.ExtractionService) *InstallmentHandler {
	return &InstallmentHandler{svc: svc}
}

// Settle marca la cuota como pagada.
// POST /api/installments/:id/settle
func (h *InstallmentHandler) Settle(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "VALIDATION", "id requerido")
	}
	var req dto.SettleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo de la petición inválido")
	}
	paidAt, err := parseDay("paid_at", req.PaidAt)
	if err != nil {
		return writeError(c, err)
	}
	in := entity.Settlement{
		InstallmentID: id,
		PaidCents:     req.PaidCents,
		InterestCents: req.InterestCents,
		DiscountCents: req.DiscountCents,
		PenaltyCents:  req.PenaltyCents,
	}
	if paidAt != nil {
		in.PaidAt = *paidAt
	}
	inst, err := h.svc.Settle(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toInstallmentResponse(inst))
}

// Split propone una división mensual pareja sin persistir.
// POST /api/installments/split
func (h *InstallmentHandler) Split(c *fiber.Ctx) error {
	var req dto.SplitRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo de la petición inválido")
	}
	issue, err := parseDay("issue_date", req.IssueDate)
	if err != nil {
		return writeError(c, err)
	}
	start := time.Now()
	if issue != nil {
		start = *issue
	}
	entries, err := payable.SplitEvenly(req.TotalCents, req.Count, start)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.SplitResponse{TotalCents: payable.Total(entries), Installments: make([]dto.SplitEntry, len(entries))}
	for i, e := range entries {
		out.Installments[i] = dto.SplitEntry{Sequence: e.Sequence, AmountCents: e.AmountCents, DueDate: e.DueDate.Format(dayLayout)}
	}
	return c.JSON(out)
}
