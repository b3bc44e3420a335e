package repository

import (
	"context"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
)

// VendorRepository define el puerto de persistencia para Vendor (DIP).
type VendorRepository interface {
	// GetByTaxID devuelve nil, nil si no existe.
	GetByTaxID(ctx context.Context, taxID string) (*entity.Vendor, error)
	// Create devuelve domain.ErrDuplicate si el tax_id ya existe.
	Create(ctx context.Context, vendor *entity.Vendor) error
	List(ctx context.Context) ([]*entity.Vendor, error)
}
