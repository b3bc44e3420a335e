package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/repository"
)

// Store base en memoria que imita las tablas vendors, payable_documents, installments
// y categories, incluidas las restricciones únicas. Los campos Fail* inyectan errores.
type Store struct {
	mu           sync.Mutex
	vendors      []*entity.Vendor
	documents    []*entity.PayableDocument
	installments []*entity.Installment
	categories   []*entity.Category

	FailVendorLookup     error
	FailVendorCreate     error
	FailDocumentCreate   error
	FailInstallmentBatch error
	// RaceVendor se inserta justo antes del próximo Create de proveedor (simula otro proceso).
	RaceVendor *entity.Vendor

	VendorCreates int
	Commits       int
	Rollbacks     int
}

// NewStore crea una base vacía.
func NewStore() *Store {
	return &Store{}
}

var (
	_ repository.VendorRepository      = (*VendorRepo)(nil)
	_ repository.PayableRepository     = (*PayableRepo)(nil)
	_ repository.InstallmentRepository = (*InstallmentRepo)(nil)
	_ repository.CategoryRepository    = (*CategoryRepo)(nil)
)

// VendorRepo vista de proveedores.
type VendorRepo struct{ s *Store }

// PayableRepo vista de documentos.
type PayableRepo struct{ s *Store }

// InstallmentRepo vista de cuotas.
type InstallmentRepo struct{ s *Store }

// CategoryRepo vista de categorías.
type CategoryRepo struct{ s *Store }

func (s *Store) Vendors() *VendorRepo           { return &VendorRepo{s} }
func (s *Store) Payables() *PayableRepo         { return &PayableRepo{s} }
func (s *Store) Installments() *InstallmentRepo { return &InstallmentRepo{s} }
func (s *Store) Categories() *CategoryRepo      { return &CategoryRepo{s} }

// RunImport simula una transacción: si fn falla se descartan documentos y cuotas creados.
func (s *Store) RunImport(ctx context.Context, fn func(repository.PayableRepository, repository.InstallmentRepository) error) error {
	s.mu.Lock()
	docs, insts := len(s.documents), len(s.installments)
	s.mu.Unlock()

	if err := fn(s.Payables(), s.Installments()); err != nil {
		s.mu.Lock()
		s.documents = s.documents[:docs]
		s.installments = s.installments[:insts]
		s.Rollbacks++
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.Commits++
	s.mu.Unlock()
	return nil
}

// ── lectura directa para asserts ─────────────────────────────────────────────

// AddVendor inserta un proveedor existente.
func (s *Store) AddVendor(v *entity.Vendor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vendors = append(s.vendors, v)
}

// AddCategory inserta una categoría.
func (s *Store) AddCategory(c *entity.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, c)
}

// AddDocument inserta un documento existente con sus cuotas.
func (s *Store) AddDocument(d *entity.PayableDocument, items ...*entity.Installment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = append(s.documents, d)
	s.installments = append(s.installments, items...)
}

// AllVendors copia de los proveedores.
func (s *Store) AllVendors() []*entity.Vendor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entity.Vendor(nil), s.vendors...)
}

// AllDocuments copia de los documentos.
func (s *Store) AllDocuments() []*entity.PayableDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entity.PayableDocument(nil), s.documents...)
}

// InstallmentsOf cuotas de un documento ordenadas por secuencia.
func (s *Store) InstallmentsOf(documentID string) []*entity.Installment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Installment
	for _, it := range s.installments {
		if it.DocumentID == documentID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNumber < out[j].SequenceNumber })
	return out
}

// ── VendorRepository ─────────────────────────────────────────────────────────

func (r *VendorRepo) GetByTaxID(_ context.Context, taxID string) (*entity.Vendor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailVendorLookup != nil {
		return nil, r.s.FailVendorLookup
	}
	for _, v := range r.s.vendors {
		if v.TaxID == taxID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *VendorRepo) Create(_ context.Context, v *entity.Vendor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.VendorCreates++
	if r.s.RaceVendor != nil {
		r.s.vendors = append(r.s.vendors, r.s.RaceVendor)
		r.s.RaceVendor = nil
	}
	if r.s.FailVendorCreate != nil {
		return r.s.FailVendorCreate
	}
	for _, e := range r.s.vendors {
		if e.TaxID == v.TaxID {
			return domain.ErrDuplicate
		}
	}
	cp := *v
	r.s.vendors = append(r.s.vendors, &cp)
	return nil
}

func (r *VendorRepo) List(_ context.Context) ([]*entity.Vendor, error) {
	return r.s.AllVendors(), nil
}

// ── PayableRepository ────────────────────────────────────────────────────────

func (r *PayableRepo) ExistsByReference(_ context.Context, key string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.documents {
		if d.ReferenceKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *PayableRepo) ExistsByDescription(_ context.Context, fragment string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f := strings.ToLower(fragment)
	for _, d := range r.s.documents {
		desc := strings.ToLower(d.Description)
		if desc == f || strings.HasPrefix(desc, f+" ") {
			return true, nil
		}
	}
	return false, nil
}

func (r *PayableRepo) Create(_ context.Context, d *entity.PayableDocument) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailDocumentCreate != nil {
		return r.s.FailDocumentCreate
	}
	for _, e := range r.s.documents {
		if e.ReferenceKey == d.ReferenceKey {
			return domain.ErrDuplicate
		}
	}
	cp := *d
	r.s.documents = append(r.s.documents, &cp)
	return nil
}

// ── InstallmentRepository ────────────────────────────────────────────────────

func (r *InstallmentRepo) CreateBatch(_ context.Context, items []*entity.Installment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailInstallmentBatch != nil {
		return r.s.FailInstallmentBatch
	}
	for _, it := range items {
		cp := *it
		r.s.installments = append(r.s.installments, &cp)
	}
	return nil
}

func (r *InstallmentRepo) GetByID(_ context.Context, id string) (*entity.Installment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, it := range r.s.installments {
		if it.ID == id {
			cp := *it
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *InstallmentRepo) FindSettlementCandidates(_ context.Context, target, minCents, maxCents int64, limit int) ([]*entity.SettlementCandidate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.SettlementCandidate
	for _, it := range r.s.installments {
		if it.Paid || it.AmountCents < minCents || it.AmountCents > maxCents {
			continue
		}
		c := &entity.SettlementCandidate{Installment: *it}
		for _, d := range r.s.documents {
			if d.ID == it.DocumentID {
				c.DocumentNumber = d.DocumentNumber
				c.Description = d.Description
			}
		}
		diff := it.AmountCents - target
		if diff < 0 {
			diff = -diff
		}
		c.Deviation = decimal.NewFromInt(diff).Div(decimal.NewFromInt(target)).Round(4)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Installment.DueDate.Before(out[j].Installment.DueDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InstallmentRepo) MarkPaid(_ context.Context, st *entity.Settlement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, it := range r.s.installments {
		if it.ID != st.InstallmentID {
			continue
		}
		if it.Paid {
			return domain.ErrInstallmentAlreadySettled
		}
		paidAt := st.PaidAt
		it.Paid = true
		it.PaidAt = &paidAt
		it.PaidCents = st.PaidCents
		it.InterestCents = st.InterestCents
		it.DiscountCents = st.DiscountCents
		it.PenaltyCents = st.PenaltyCents
		return nil
	}
	return domain.ErrNotFound
}

// ── CategoryRepository ───────────────────────────────────────────────────────

func (r *CategoryRepo) List(_ context.Context) ([]*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]*entity.Category(nil), r.s.categories...), nil
}
