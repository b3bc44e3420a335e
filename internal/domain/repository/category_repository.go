package repository

import (
	"context"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
)

// CategoryRepository define el puerto de lectura para categorías (DIP).
type CategoryRepository interface {
	List(ctx context.Context) ([]*entity.Category, error)
}
