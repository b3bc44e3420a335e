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

var _ repository.VendorRepository = (*VendorRepo)(nil)

// VendorRepo implementación de VendorRepository (usable con pool o tx).
type VendorRepo struct {
	q Querier
}

// NewVendorRepository construye el adaptador. Pasar pool o tx (Querier).
func NewVendorRepository(q Querier) *VendorRepo {
	return &VendorRepo{q: q}
}

const vendorColumns = `id, tax_id, legal_name, trade_name, created_at`

// GetByTaxID obtiene un proveedor por CNPJ/CPF (solo dígitos).
func (r *VendorRepo) GetByTaxID(ctx context.Context, taxID string) (*entity.Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE tax_id = $1`
	v, err := scanVendor(r.q.QueryRow(ctx, query, taxID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get vendor: %w", err)
	}
	return v, nil
}

// Create persiste un proveedor nuevo.
func (r *VendorRepo) Create(ctx context.Context, v *entity.Vendor) error {
	query := `
		INSERT INTO vendors (id, tax_id, legal_name, trade_name, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, v.ID, v.TaxID, v.LegalName, nullIfEmpty(v.TradeName), v.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert vendor: %w", err)
	}
	return nil
}

// List devuelve todos los proveedores ordenados por razón social.
func (r *VendorRepo) List(ctx context.Context) ([]*entity.Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors ORDER BY legal_name`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	var out []*entity.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanVendor(row pgx.Row) (*entity.Vendor, error) {
	var v entity.Vendor
	var trade *string
	if err := row.Scan(&v.ID, &v.TaxID, &v.LegalName, &trade, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.TradeName = derefString(trade)
	return &v, nil
}
