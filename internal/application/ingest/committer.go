package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/payable"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/repository"
)

// CommitConfig valores por defecto aplicados a todo documento persistido.
type CommitConfig struct {
	DescriptionLabel  string
	DefaultCategoryID string
	DefaultBranchID   string
}

// PendingDocument documento validado y con cronograma, listo para escribir.
type PendingDocument struct {
	VendorID       string
	ReferenceKey   string
	DocumentNumber string
	AccessKey      string
	Description    string
	IssueDate      time.Time
	TotalCents     int64
	CategoryID     string
	BranchID       string
	Source         entity.DocumentSource
	SourceFile     string
	Schedule       []payable.Entry
}

// Committer escribe cabecera + cuotas en una sola transacción.
// Lo comparten la importación XML y la confirmación de borradores IA.
type Committer struct {
	tx  ImportTxRunner
	cfg CommitConfig
	now func() time.Time
}

// NewCommitter construye el committer.
func NewCommitter(tx ImportTxRunner, cfg CommitConfig) *Committer {
	return &Committer{tx: tx, cfg: cfg, now: time.Now}
}

// Config devuelve la configuración aplicada.
func (c *Committer) Config() CommitConfig { return c.cfg }

// Persist crea el documento y sus cuotas. Devuelve domain.ErrDuplicate (envuelto) si la
// restricción única de reference_key rechaza el insert.
func (c *Committer) Persist(ctx context.Context, p PendingDocument) (*entity.PayableDocument, []*entity.Installment, error) {
	if len(p.Schedule) == 0 {
		return nil, nil, fmt.Errorf("%w: documento sin cuotas", domain.ErrInvalidInput)
	}
	if sum := payable.Total(p.Schedule); sum != p.TotalCents {
		return nil, nil, fmt.Errorf("%w: cuotas suman %d, total %d", domain.ErrInvalidAmount, sum, p.TotalCents)
	}

	now := c.now()
	doc := &entity.PayableDocument{
		ID:               uuid.New().String(),
		VendorID:         p.VendorID,
		ReferenceKey:     p.ReferenceKey,
		DocumentNumber:   p.DocumentNumber,
		AccessKey:        p.AccessKey,
		Description:      p.Description,
		TotalCents:       p.TotalCents,
		InstallmentCount: len(p.Schedule),
		IssueDate:        p.IssueDate,
		CategoryID:       firstNonEmpty(p.CategoryID, c.cfg.DefaultCategoryID),
		BranchID:         firstNonEmpty(p.BranchID, c.cfg.DefaultBranchID),
		Source:           p.Source,
		SourceFile:       p.SourceFile,
		CreatedAt:        now,
	}
	items := make([]*entity.Installment, len(p.Schedule))
	for i, e := range p.Schedule {
		items[i] = &entity.Installment{
			ID:             uuid.New().String(),
			DocumentID:     doc.ID,
			SequenceNumber: e.Sequence,
			AmountCents:    e.AmountCents,
			DueDate:        e.DueDate,
			CreatedAt:      now,
		}
	}

	err := c.tx.RunImport(ctx, func(payableRepo repository.PayableRepository, installmentRepo repository.InstallmentRepository) error {
		if err := payableRepo.Create(ctx, doc); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return fmt.Errorf("reference_key %s: %w", doc.ReferenceKey, domain.ErrDuplicate)
			}
			return fmt.Errorf("%w: %v", domain.ErrDocumentPersistence, err)
		}
		if err := installmentRepo.CreateBatch(ctx, items); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInstallmentPersistence, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) || errors.Is(err, domain.ErrDocumentPersistence) || errors.Is(err, domain.ErrInstallmentPersistence) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrDocumentPersistence, err)
	}
	return doc, items, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
