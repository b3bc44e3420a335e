package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/repository"
	"github.com/jhoicas/fiscal-ingest-api/pkg/nfe"
)

// VendorInput datos del emisor para buscar o crear el proveedor.
type VendorInput struct {
	TaxID     string
	LegalName string
	TradeName string
}

// VendorResolver busca el proveedor por CNPJ/CPF y lo crea si no existe.
// Un proveedor existente se devuelve tal cual, sin reconciliar nombres.
type VendorResolver struct {
	repo repository.VendorRepository
	now  func() time.Time
}

// NewVendorResolver construye el resolver.
func NewVendorResolver(repo repository.VendorRepository) *VendorResolver {
	return &VendorResolver{repo: repo, now: time.Now}
}

// Resolve devuelve el proveedor y si fue creado en esta llamada.
// Errores de la base se envuelven en domain.ErrVendorPersistence.
func (r *VendorResolver) Resolve(ctx context.Context, in VendorInput) (*entity.Vendor, bool, error) {
	taxID := nfe.OnlyDigits(in.TaxID)
	name := strings.TrimSpace(in.LegalName)
	if taxID == "" || name == "" {
		return nil, false, fmt.Errorf("%w: CNPJ/CPF y razón social son obligatorios", domain.ErrMissingIssuerData)
	}

	existing, err := r.repo.GetByTaxID(ctx, taxID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: buscar %s: %v", domain.ErrVendorPersistence, taxID, err)
	}
	if existing != nil {
		return existing, false, nil
	}

	v := &entity.Vendor{
		ID:        uuid.New().String(),
		TaxID:     taxID,
		LegalName: name,
		TradeName: strings.TrimSpace(in.TradeName),
		CreatedAt: r.now(),
	}
	if err := r.repo.Create(ctx, v); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			// otro proceso lo creó entre la búsqueda y el insert
			winner, getErr := r.repo.GetByTaxID(ctx, taxID)
			if getErr == nil && winner != nil {
				return winner, false, nil
			}
		}
		return nil, false, fmt.Errorf("%w: crear %s: %v", domain.ErrVendorPersistence, taxID, err)
	}
	return v, true, nil
}
