package repository

import (
	"context"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
)

// InstallmentRepository define el puerto de persistencia para cuotas.
type InstallmentRepository interface {
	CreateBatch(ctx context.Context, items []*entity.Installment) error
	GetByID(ctx context.Context, id string) (*entity.Installment, error)
	// FindSettlementCandidates cuotas no pagadas con monto en [minCents, maxCents],
	// ordenadas por vencimiento ascendente. target se usa para calcular el desvío.
	FindSettlementCandidates(ctx context.Context, targetCents, minCents, maxCents int64, limit int) ([]*entity.SettlementCandidate, error)
	// MarkPaid devuelve domain.ErrInstallmentAlreadySettled si la cuota ya estaba pagada.
	MarkPaid(ctx context.Context, s *entity.Settlement) error
}
