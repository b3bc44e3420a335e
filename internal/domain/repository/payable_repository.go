package repository

import (
	"context"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
)

// PayableRepository define el puerto de persistencia para documentos por pagar.
type PayableRepository interface {
	ExistsByReference(ctx context.Context, referenceKey string) (bool, error)
	// ExistsByDescription indica si alguna descripción es fragment o empieza con fragment
	// seguido de un espacio, sin distinguir mayúsculas.
	ExistsByDescription(ctx context.Context, fragment string) (bool, error)
	// Create devuelve domain.ErrDuplicate si reference_key ya existe.
	Create(ctx context.Context, doc *entity.PayableDocument) error
}
