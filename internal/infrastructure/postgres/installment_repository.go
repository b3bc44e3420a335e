package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/repository"
)

var _ repository.InstallmentRepository = (*InstallmentRepo)(nil)

// InstallmentRepo implementación de InstallmentRepository (usable con pool o tx).
type InstallmentRepo struct {
	q Querier
}

// NewInstallmentRepository construye el adaptador.
func NewInstallmentRepository(q Querier) *InstallmentRepo {
	return &InstallmentRepo{q: q}
}

const installmentColumns = `i.id, i.document_id, i.sequence_number, i.amount_cents, i.due_date,
	i.paid, i.paid_at, i.paid_cents, i.interest_cents, i.discount_cents, i.penalty_cents, i.created_at`

// CreateBatch inserta las cuotas de un documento en un solo round-trip.
func (r *InstallmentRepo) CreateBatch(ctx context.Context, items []*entity.Installment) error {
	if len(items) == 0 {
		return nil
	}
	query := `
		INSERT INTO installments (id, document_id, sequence_number, amount_cents, due_date, paid, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)`
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(query, it.ID, it.DocumentID, it.SequenceNumber, it.AmountCents, it.DueDate, it.CreatedAt)
	}
	br := sendBatch(ctx, r.q, batch)
	if br == nil {
		// Querier sin soporte de batch: insert uno a uno
		for _, it := range items {
			if _, err := r.q.Exec(ctx, query, it.ID, it.DocumentID, it.SequenceNumber, it.AmountCents, it.DueDate, it.CreatedAt); err != nil {
				return fmt.Errorf("insert installment %d: %w", it.SequenceNumber, err)
			}
		}
		return nil
	}
	defer br.Close()
	for _, it := range items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert installment %d: %w", it.SequenceNumber, err)
		}
	}
	return nil
}

// GetByID obtiene una cuota por ID.
func (r *InstallmentRepo) GetByID(ctx context.Context, id string) (*entity.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments i WHERE i.id = $1`
	it, err := scanInstallment(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get installment: %w", err)
	}
	return it, nil
}

// FindSettlementCandidates cuotas abiertas dentro del rango, con el desvío relativo
// calculado en NUMERIC por la base.
func (r *InstallmentRepo) FindSettlementCandidates(ctx context.Context, targetCents, minCents, maxCents int64, limit int) ([]*entity.SettlementCandidate, error) {
	query := `
		SELECT ` + installmentColumns + `,
			COALESCE(d.document_number, ''), d.description, v.legal_name,
			ROUND(ABS(i.amount_cents - $1)::numeric / $1, 4) AS deviation
		FROM installments i
		JOIN payable_documents d ON d.id = i.document_id
		JOIN vendors v ON v.id = d.vendor_id
		WHERE NOT i.paid AND i.amount_cents BETWEEN $2 AND $3
		ORDER BY i.due_date ASC, deviation ASC
		LIMIT $4`
	rows, err := r.q.Query(ctx, query, targetCents, minCents, maxCents, limit)
	if err != nil {
		return nil, fmt.Errorf("find settlement candidates: %w", err)
	}
	defer rows.Close()

	var out []*entity.SettlementCandidate
	for rows.Next() {
		var c entity.SettlementCandidate
		it := &c.Installment
		if err := rows.Scan(
			&it.ID, &it.DocumentID, &it.SequenceNumber, &it.AmountCents, &it.DueDate,
			&it.Paid, &it.PaidAt, &it.PaidCents, &it.InterestCents, &it.DiscountCents, &it.PenaltyCents, &it.CreatedAt,
			&c.DocumentNumber, &c.Description, &c.VendorName, &c.Deviation,
		); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// MarkPaid registra la baixa. Solo actualiza cuotas abiertas.
func (r *InstallmentRepo) MarkPaid(ctx context.Context, s *entity.Settlement) error {
	query := `
		UPDATE installments
		SET paid = TRUE, paid_at = $2, paid_cents = $3, interest_cents = $4, discount_cents = $5, penalty_cents = $6
		WHERE id = $1 AND NOT paid`
	tag, err := r.q.Exec(ctx, query, s.InstallmentID, s.PaidAt, s.PaidCents, s.InterestCents, s.DiscountCents, s.PenaltyCents)
	if err != nil {
		return fmt.Errorf("mark installment paid: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM installments WHERE id = $1)`, s.InstallmentID).Scan(&exists); err != nil {
		return fmt.Errorf("check installment: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrInstallmentAlreadySettled
}

func scanInstallment(row pgx.Row) (*entity.Installment, error) {
	var it entity.Installment
	err := row.Scan(
		&it.ID, &it.DocumentID, &it.SequenceNumber, &it.AmountCents, &it.DueDate,
		&it.Paid, &it.PaidAt, &it.PaidCents, &it.InterestCents, &it.DiscountCents, &it.PenaltyCents, &it.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// sendBatch usa SendBatch si el Querier lo soporta (pool y tx lo hacen).
func sendBatch(ctx context.Context, q Querier, b *pgx.Batch) pgx.BatchResults {
	if s, ok := q.(batchSender); ok {
		return s.SendBatch(ctx, b)
	}
	return nil
}
