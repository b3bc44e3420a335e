package ingest_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/ingest"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/repository"
	"github.com/jhoicas/fiscal-ingest-api/internal/infrastructure/nfexml"
)

// ──────────────────────────────────────────────────────────────────────────────
// Flujo feliz
// ──────────────────────────────────────────────────────────────────────────────

func TestRun_ImportaDocumentoConCuotas(t *testing.T) {
	h := newHarness()

	summary := h.orchestrator.Run(context.Background(), []entity.ImportFile{
		file("a.xml", nfeXML("1001", cnpjA, "FORNECEDOR A LTDA", "300.00", "100.00@2024-02-14", "100.00@2024-03-15", "100.00@2024-04-14")),
	}, nil)

	require.Equal(t, 1, summary.Committed)
	res := summary.Files[0]
	assert.Equal(t, entity.StateCommitted, res.State)
	assert.Equal(t, entity.OutcomeCommitted, res.Outcome)
	assert.Equal(t, 3, res.InstallmentCount)
	assert.True(t, res.VendorCreated)

	docs := h.store.AllDocuments()
	require.Len(t, docs, 1)
	assert.Equal(t, "1001", docs[0].ReferenceKey)
	assert.Equal(t, "NF 1001 - FORNECEDOR A LTDA", docs[0].Description)
	assert.Equal(t, int64(30000), docs[0].TotalCents)
	assert.Equal(t, "cat-compras", docs[0].CategoryID)
	assert.Empty(t, docs[0].BranchID)
	assert.Equal(t, entity.SourceXML, docs[0].Source)

	items := h.store.InstallmentsOf(docs[0].ID)
	require.Len(t, items, 3)
	var sum int64
	for i, it := range items {
		assert.Equal(t, i+1, it.SequenceNumber)
		assert.False(t, it.Paid)
		sum += it.AmountCents
	}
	assert.Equal(t, docs[0].TotalCents, sum)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), items[1].DueDate)

	assert.Contains(t, h.archiver.Objects, "1001.xml")
}

func TestRun_SinCuotas_UnaCuotaEnLaEmision(t *testing.T) {
	h := newHarness()

	summary := h.orchestrator.Run(context.Background(), []entity.ImportFile{
		file("b.xml", nfeXML("2002", cnpjA, "FORNECEDOR A LTDA", "150.00")),
	}, nil)
	require.Equal(t, 1, summary.Committed)

	items := h.store.InstallmentsOf(summary.Files[0].DocumentID)
	require.Len(t, items, 1)
	assert.Equal(t, int64(15000), items[0].AmountCents)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), items[0].DueDate)
}

// ──────────────────────────────────────────────────────────────────────────────
// Duplicados y proveedores
// ──────────────────────────────────────────────────────────────────────────────

func TestRun_MismoDocumentoDosVeces_SegundoEsDuplicado(t *testing.T) {
	h := newHarness()
	content := nfeXML("3003", cnpjA, "FORNECEDOR A LTDA", "100.00")

	summary := h.orchestrator.Run(context.Background(), []entity.ImportFile{
		file("x.xml", content),
		file("x-copia.xml", content),
	}, nil)

	assert.Equal(t, 1, summary.Committed)
	assert.Equal(t, 1, summary.Duplicates)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, entity.StateSkippedDuplicate, summary.Files[1].State)
	assert.Equal(t, ingest.MatchedOnDocumentNumber, summary.Files[1].MatchedOn)
	assert.Len(t, h.store.AllDocuments(), 1)
}

func TestRun_ProveedorSeReutiliza(t *testing.T) {
	h := newHarness()

	summary := h.orchestrator.Run(context.Background(), []entity.ImportFile{
		file("1.xml", nfeXML("4001", cnpjA, "FORNECEDOR A LTDA", "10.00")),
		file("2.xml", nfeXML("4002", cnpjA, "NOME DIFERENTE SA", "20.00")),
		file("3.xml", nfeXML("4003", cnpjB, "FORNECEDOR B LTDA", "30.00")),
	}, nil)

	require.Equal(t, 3, summary.Committed)
	vendors := h.store.AllVendors()
	require.Len(t, vendors, 2)
	assert.Equal(t, "FORNECEDOR A LTDA", vendors[0].LegalName, "el proveedor existente no se actualiza")

	docs := h.store.AllDocuments()
	assert.Equal(t, docs[0].VendorID, docs[1].VendorID)
	assert.NotEqual(t, docs[0].VendorID, docs[2].VendorID)
	assert.True(t, summary.Files[0].VendorCreated)
	assert.False(t, summary.Files[1].VendorCreated)
}

func TestRun_DuplicadoPorDescripcionLegada(t *testing.T) {
	h := newHarness()
	h.store.AddDocument(&entity.PayableDocument{ID: "legado", ReferenceKey: "manual-1", Description: "NF 5005 - lançamento manual"})

	summary := h.orchestrator.Run(context.Background(), []entity.ImportFile{
		file("5.xml", nfeXML("5005", cnpjA, "FORNECEDOR A LTDA", "10.00")),
	}, nil)

	assert.Equal(t, 1, summary.Duplicates)
	assert.Equal(t, ingest.MatchedOnDescription, summary.Files[0].MatchedOn)
}

const (
	chaveA123 = "35240111222333000181550010000001231100000010"
	chaveB123 = "35240198765432000198550010000001231200000020"
)

func TestRun_NumeroContenidoEnOtro_NoEsDuplicado(t *testing.T) {
	h := newHarness()

	summary := h.orchestrator.Run(context.Background(), []entity.ImportFile{
		file("a.xml", nfeXML("123", cnpjA, "FORNECEDOR A LTDA", "10.00")),
		file("b.xml", nfeXML("12", cnpjB, "FORNECEDOR B LTDA", "20.00")),
	}, nil)

	assert.Equal(t, 2, summary.Committed)
	assert.Equal(t, 0, summary.Duplicates)
	assert.Equal(t, entity.StateCommitted, summary.Files[1].State)
	assert.Len(t, h.store.AllDocuments(), 2)
}

func TestRun_MismoNumeroConOtraChave_NoEsDuplicado(t *testing.T) {
	h := newHarness()

	summary := h.orchestrator.Run(context.Background(), []entity.ImportFile{
		file("a.xml", nfeXMLWithKey(chaveA123, "123", cnpjA, "FORNECEDOR A LTDA", "10.00")),
		file("b.xml", nfeXMLWithKey(chaveB123, "123", cnpjB, "FORNECEDOR B LTDA", "20.00")),
	}, nil)

	assert.Equal(t, 2, summary.Committed)
	assert.Equal(t, 0, summary.Duplicates)
	docs := h.store.AllDocuments()
	require.Len(t, docs, 2)
	assert.Equal(t, chaveA123, docs[0].ReferenceKey)
	assert.Equal(t, chaveB123, docs[1].ReferenceKey)
}

func TestRun_MismaChaveDosVeces_DuplicadoPorChave(t *testing.T) {
	h := newHarness()
	content := nfeXMLWithKey(chaveA123, "123", cnpjA, "FORNECEDOR A LTDA", "10.00")

	summary := h.orchestrator.Run(context.Background(), []entity.ImportFile{
		file("a.xml", content),
		file("a-copia.xml", content),
	}, nil)

	assert.Equal(t, 1, summary.Committed)
	assert.Equal(t, 1, summary.Duplicates)
	assert.Equal(t, ingest.MatchedOnAccessKey, summary.Files[1].MatchedOn)
}

func TestRun_ChaveNuevaNoUsaLaDescripcionLegada(t *testing.T) {
	h := newHarness()
	h.store.AddDocument(&entity.PayableDocument{ID: "legado", ReferenceKey: "manual-2", Description: "NF 123 - lançamento manual"})

	summary := h.orchestrator.Run(context.Background(), []entity.ImportFile{
		file("a.xml", nfeXMLWithKey(chaveA123, "123", cnpjA, "FORNECEDOR A LTDA", "10.00")),
	}, nil)

	assert.Equal(t, 1, summary.Committed)
	assert.Equal(t, 0, summary.Duplicates)
}

func TestRun_ArchivoConSaltoDeLineaFinal(t *testing.T) {
	h := newHarness()
	content := append(nfeXMLWithKey(chaveA123, "123", cnpjA, "FORNECEDOR A LTDA", "10.00"), "\r\n\n"...)
	require.True(t, bytes.HasSuffix(content, []byte("\n")))

	summary := h.orchestrator.Run(context.Background(), []entity.ImportFile{file("a.xml", content)}, nil)

	require.Equal(t, 1, summary.Committed, summary.Files[0].Message)
	assert.Equal(t, entity.StateCommitted, summary.Files[0].State)
	assert.Equal(t, "123", summary.Files[0].DocumentNumber)
}

// ──────────────────────────────────────────────────────────────────────────────
// Resiliencia del lote
// ──────────────────────────────────────────────────────────────────────────────

func TestRun_ArchivoMalformadoNoAbortaElLote(t *testing.T) {
	h := newHarness()
	files := []entity.ImportFile{
		file("1.xml", nfeXML("6001", cnpjA, "A", "10.00")),
		file("2.xml", nfeXML("6002", cnpjA, "A", "10.00")),
		file("3.xml", []byte(`<nfeProc><NFe><infNFe Id="abc></nfeProc>`)),
		file("4.xml", nfeXML("6004", cnpjA, "A", "10.00")),
		file("5.xml", nfeXML("6005", cnpjA, "A", "10.00")),
	}
	var percents []int

	summary := h.orchestrator.Run(context.Background(), files, func(p ingest.Progress) {
		percents = append(percents, p.Percent)
	})

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 4, summary.Committed)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Files, 5)
	assert.Equal(t, "3.xml", summary.Files[2].FileName)
	assert.Equal(t, entity.StateExtractFailed, summary.Files[2].State)
	assert.Equal(t, domain.KindMalformedDocument, summary.Files[2].Kind)
	assert.NotEmpty(t, summary.Files[2].Message)

	assert.Equal(t, []int{20, 40, 60, 80, 100}, percents)
}

func TestRun_FallaDeCuotasRevierteLaCabecera(t *testing.T) {
	h := newHarness()
	h.store.FailInstallmentBatch = errors.New("conexión perdida")

	summary := h.orchestrator.Run(context.Background(), []entity.ImportFile{
		file("7.xml", nfeXML("7007", cnpjA, "A", "10.00")),
	}, nil)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, entity.StatePersistFailed, summary.Files[0].State)
	assert.Equal(t, domain.KindInstallmentPersistence, summary.Files[0].Kind)
	assert.Empty(t, h.store.AllDocuments())
	assert.Equal(t, 1, h.store.Rollbacks)
	assert.Empty(t, h.archiver.Objects)
}

func TestRun_FallaDeProveedorEsFatalParaElArchivo(t *testing.T) {
	h := newHarness()
	h.store.FailVendorCreate = errors.New("timeout")

	summary := h.orchestrator.Run(context.Background(), []entity.ImportFile{
		file("8.xml", nfeXML("8008", cnpjA, "A", "10.00")),
	}, nil)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, domain.KindVendorPersistence, summary.Files[0].Kind)
	assert.Empty(t, h.store.AllDocuments())
}

// ciegoPayables oculta los documentos existentes al detector para forzar el choque en el insert.
type ciegoPayables struct {
	repository.PayableRepository
}

func (ciegoPayables) ExistsByReference(context.Context, string) (bool, error)   { return false, nil }
func (ciegoPayables) ExistsByDescription(context.Context, string) (bool, error) { return false, nil }

func TestProcessFile_RestriccionUnicaSeReportaComoDuplicado(t *testing.T) {
	h := newHarness()
	h.store.AddDocument(&entity.PayableDocument{ID: "otro", ReferenceKey: "9009", Description: "importado por otro proceso"})
	detector := ingest.NewDuplicateDetector(ciegoPayables{h.store.Payables()}, "NF")
	o := ingest.NewOrchestrator(nfexml.NewExtractor(nil), detector, h.resolver, h.committer, h.archiver, 0, nil)

	res := o.ProcessFile(context.Background(), file("9.xml", nfeXML("9009", cnpjA, "A", "10.00")))

	assert.Equal(t, entity.StateSkippedDuplicate, res.State)
	assert.Equal(t, entity.OutcomeDuplicate, res.Outcome)
	assert.Equal(t, ingest.MatchedOnUniqueConstraint, res.MatchedOn)
	assert.Len(t, h.store.AllDocuments(), 1)
	assert.Equal(t, 1, h.store.Rollbacks)
}

func TestProcessFile_CuotasInconsistentesFallanEnExtraccion(t *testing.T) {
	h := newHarness()

	res := h.orchestrator.ProcessFile(context.Background(),
		file("10.xml", nfeXML("1010", cnpjA, "A", "100.00", "40.00", "40.00")))

	assert.Equal(t, entity.StateExtractFailed, res.State)
	assert.Equal(t, domain.KindInvalidAmount, res.Kind)
	assert.Empty(t, h.store.AllDocuments())
}

func TestRun_CancelacionEntreArchivos(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	var seen []string

	summary := h.orchestrator.Run(ctx, []entity.ImportFile{
		file("1.xml", nfeXML("1101", cnpjA, "A", "10.00")),
		file("2.xml", nfeXML("1102", cnpjA, "A", "10.00")),
		file("3.xml", nfeXML("1103", cnpjA, "A", "10.00")),
	}, func(p ingest.Progress) {
		seen = append(seen, p.File)
		if p.Done == 1 {
			cancel()
		}
	})

	assert.Equal(t, 1, summary.Committed)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, domain.KindCanceled, summary.Files[1].Kind)
	assert.Equal(t, domain.KindCanceled, summary.Files[2].Kind)
	assert.Equal(t, []string{"1.xml", "2.xml", "3.xml"}, seen)
}

func TestRun_PausaEntreArchivos(t *testing.T) {
	h := newHarness()
	extractor := nfexml.NewExtractor(nil)
	o := ingest.NewOrchestrator(extractor, h.detector, h.resolver, h.committer, nil, 30*time.Millisecond, nil)

	start := time.Now()
	summary := o.Run(context.Background(), []entity.ImportFile{
		file("1.xml", nfeXML("1201", cnpjA, "A", "10.00")),
		file("2.xml", nfeXML("1202", cnpjA, "A", "10.00")),
		file("3.xml", nfeXML("1203", cnpjA, "A", "10.00")),
	}, nil)

	assert.Equal(t, 3, summary.Committed)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestRun_LoteVacio(t *testing.T) {
	h := newHarness()
	called := false

	summary := h.orchestrator.Run(context.Background(), nil, func(ingest.Progress) { called = true })

	assert.Equal(t, 0, summary.Total)
	assert.Empty(t, summary.Files)
	assert.False(t, called)
}
