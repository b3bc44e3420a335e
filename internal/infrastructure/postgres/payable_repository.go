package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/repository"
)

var _ repository.PayableRepository = (*PayableRepo)(nil)

// PayableRepo implementación de PayableRepository (usable con pool o tx).
type PayableRepo struct {
	q Querier
}

// NewPayableRepository construye el adaptador.
func NewPayableRepository(q Querier) *PayableRepo {
	return &PayableRepo{q: q}
}

// ExistsByReference indica si ya hay un documento con esa chave o número.
func (r *PayableRepo) ExistsByReference(ctx context.Context, referenceKey string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payable_documents WHERE reference_key = $1)`, referenceKey,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists by reference: %w", err)
	}
	return exists, nil
}

// ExistsByDescription busca el fragmento al inicio de la descripción, como token completo
// ("NF 12" no coincide con "NF 123 - ..."). Documentos cargados a mano.
func (r *PayableRepo) ExistsByDescription(ctx context.Context, fragment string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM payable_documents
			WHERE lower(description) = lower($1) OR description ILIKE $2 || ' %'
		)`,
		fragment, likeEscape(fragment),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists by description: %w", err)
	}
	return exists, nil
}

// Create persiste la cabecera del documento.
func (r *PayableRepo) Create(ctx context.Context, d *entity.PayableDocument) error {
	query := `
		INSERT INTO payable_documents (
			id, vendor_id, reference_key, document_number, access_key, description,
			total_cents, installment_count, issue_date, category_id, branch_id,
			source, source_file, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		d.ID, d.VendorID, d.ReferenceKey, nullIfEmpty(d.DocumentNumber), nullIfEmpty(d.AccessKey), d.Description,
		d.TotalCents, d.InstallmentCount, d.IssueDate, nullIfEmpty(d.CategoryID), nullIfEmpty(d.BranchID),
		string(d.Source), nullIfEmpty(d.SourceFile), d.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert payable document: %w", err)
	}
	return nil
}
