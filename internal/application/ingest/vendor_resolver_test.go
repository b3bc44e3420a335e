package ingest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/ingest"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/internal/testutil"
)

func TestVendorResolver_CreaYReutiliza(t *testing.T) {
	store := testutil.NewStore()
	r := ingest.NewVendorResolver(store.Vendors())
	ctx := context.Background()

	v1, created, err := r.Resolve(ctx, ingest.VendorInput{TaxID: "11.222.333/0001-81", LegalName: " FORNECEDOR A ", TradeName: "A"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, cnpjA, v1.TaxID)
	assert.Equal(t, "FORNECEDOR A", v1.LegalName)

	v2, created, err := r.Resolve(ctx, ingest.VendorInput{TaxID: cnpjA, LegalName: "OTRO NOMBRE"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, v1.ID, v2.ID)
	assert.Equal(t, "FORNECEDOR A", v2.LegalName)
	assert.Equal(t, 1, store.VendorCreates)
}

func TestVendorResolver_DatosFaltantes(t *testing.T) {
	r := ingest.NewVendorResolver(testutil.NewStore().Vendors())

	_, _, err := r.Resolve(context.Background(), ingest.VendorInput{TaxID: "", LegalName: "X"})
	assert.ErrorIs(t, err, domain.ErrMissingIssuerData)

	_, _, err = r.Resolve(context.Background(), ingest.VendorInput{TaxID: cnpjA, LegalName: "  "})
	assert.ErrorIs(t, err, domain.ErrMissingIssuerData)
}

func TestVendorResolver_CarreraConOtroProceso(t *testing.T) {
	store := testutil.NewStore()
	store.RaceVendor = &entity.Vendor{ID: "ganador", TaxID: cnpjA, LegalName: "A"}
	r := ingest.NewVendorResolver(store.Vendors())

	v, created, err := r.Resolve(context.Background(), ingest.VendorInput{TaxID: cnpjA, LegalName: "A"})

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "ganador", v.ID)
	assert.Len(t, store.AllVendors(), 1)
}

func TestVendorResolver_ErrorDeBase(t *testing.T) {
	store := testutil.NewStore()
	store.FailVendorLookup = errors.New("connection refused")
	r := ingest.NewVendorResolver(store.Vendors())

	_, _, err := r.Resolve(context.Background(), ingest.VendorInput{TaxID: cnpjA, LegalName: "A"})

	assert.ErrorIs(t, err, domain.ErrVendorPersistence)
	assert.Contains(t, err.Error(), "connection refused")
}
