package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/dto"
	"github.com/jhoicas/fiscal-ingest-api/internal/application/ingest"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/internal/infrastructure/nfexml"
	apphttp "github.com/jhoicas/fiscal-ingest-api/internal/interfaces/http"
	"github.com/jhoicas/fiscal-ingest-api/internal/testutil"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const validNFe = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc><NFe><infNFe>
<ide><nNF>4521</nNF><dhEmi>2024-01-15T10:00:00-03:00</dhEmi></ide>
<emit><CNPJ>11222333000181</CNPJ><xNome>Papelaria Central Ltda</xNome></emit>
<total><ICMSTot><vNF>300.00</vNF></ICMSTot></total>
<cobr><dup><nDup>001</nDup><dVenc>2024-02-15</dVenc><vDup>150.00</vDup></dup>
<dup><nDup>002</nDup><dVenc>2024-03-15</dVenc><vDup>150.00</vDup></dup></cobr>
</infNFe></NFe></nfeProc>`

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type testEnv struct {
	app   *fiber.App
	store *testutil.Store
	ai    *testutil.AIStub
}

func newTestEnv(result *entity.ExtractionResult) *testEnv {
	store := testutil.NewStore()
	ai := &testutil.AIStub{Result: result}
	detector := ingest.NewDuplicateDetector(store.Payables(), "NF")
	resolver := ingest.NewVendorResolver(store.Vendors())
	committer := ingest.NewCommitter(store, ingest.CommitConfig{DescriptionLabel: "NF"})
	orchestrator := ingest.NewOrchestrator(nfexml.NewExtractor(nil), detector, resolver, committer, nil, 0, nil)
	extraction := ingest.NewExtractionService(ai, nil,
		store.Vendors(), store.Categories(), store.Installments(),
		detector, resolver, committer,
		ingest.ExtractionConfig{MaxBytes: 1 << 20, Timeout: time.Second}, nil)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Orchestrator:   orchestrator,
		Extraction:     extraction,
		MaxUploadBytes: 1 << 20,
	})
	return &testEnv{app: app, store: store, ai: ai}
}

type part struct {
	field, name string
	content     []byte
}

func multipartRequest(t *testing.T, url string, parts ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, p := range parts {
		fw, err := w.CreateFormFile(p.field, p.name)
		require.NoError(t, err)
		_, err = fw.Write(p.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, url string, v any) *http.Request {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func do(t *testing.T, app *fiber.App, req *http.Request, out any) *http.Response {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	if out != nil {
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, out), string(body))
	}
	return resp
}

// ──────────────────────────────────────────────────────────────────────────────
// POST /api/imports/nfe
// ──────────────────────────────────────────────────────────────────────────────

func TestImportNFe_LoteConFallaParcial(t *testing.T) {
	env := newTestEnv(nil)
	req := multipartRequest(t, "/api/imports/nfe",
		part{"files", "4521.xml", []byte(validNFe)},
		part{"files", "roto.xml", []byte(`<nfeProc><NFe><infNFe Id="abc></nfeProc>`)},
		part{"files", "4521-copia.xml", []byte(validNFe)},
	)

	var out dto.BatchSummaryResponse
	resp := do(t, env.app, req, &out)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 1, out.Committed)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, 1, out.Duplicates)
	require.Len(t, out.Files, 3)
	assert.Equal(t, "4521", out.Files[0].DocumentNumber)
	assert.Equal(t, 2, out.Files[0].InstallmentCount)
	assert.Equal(t, int64(30000), out.Files[0].TotalCents)
	assert.Equal(t, "MALFORMED_DOCUMENT", out.Files[1].Kind)
	assert.Equal(t, "duplicate", out.Files[2].Outcome)
	assert.Len(t, env.store.AllDocuments(), 1)
}

func TestImportNFe_ReporteXLSX(t *testing.T) {
	env := newTestEnv(nil)
	req := multipartRequest(t, "/api/imports/nfe?format=xlsx", part{"files", "4521.xml", []byte(validNFe)})

	resp := do(t, env.app, req, nil)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")), "xlsx es un zip")
}

func TestImportNFe_ReportePDF(t *testing.T) {
	env := newTestEnv(nil)
	req := multipartRequest(t, "/api/imports/nfe?format=pdf", part{"files", "4521.xml", []byte(validNFe)})

	resp := do(t, env.app, req, nil)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestImportNFe_PeticionesInvalidas(t *testing.T) {
	env := newTestEnv(nil)

	resp := do(t, env.app, multipartRequest(t, "/api/imports/nfe"), nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = do(t, env.app, multipartRequest(t, "/api/imports/nfe?format=csv", part{"files", "a.xml", []byte(validNFe)}), nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = do(t, env.app, jsonRequest(t, "/api/imports/nfe", map[string]string{"a": "b"}), nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// POST /api/documents/extract y /commit
// ──────────────────────────────────────────────────────────────────────────────

func TestExtract_BorradorNuevaObligacion(t *testing.T) {
	env := newTestEnv(&entity.ExtractionResult{
		Intent:     entity.IntentNewObligation,
		Confidence: 87,
		Obligation: &entity.ObligationDraft{
			DocumentNumber: "777",
			IssuerTaxID:    "11222333000181",
			IssuerName:     "Papelaria Central Ltda",
			TotalAmount:    decimal.RequireFromString("99.90"),
		},
	})
	env.store.AddVendor(&entity.Vendor{ID: "v1", TaxID: "11222333000181", LegalName: "Papelaria Central Ltda"})

	var out dto.DraftResponse
	resp := do(t, env.app, multipartRequest(t, "/api/documents/extract", part{"file", "boleto.png", pngHeader}), &out)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "NEW_OBLIGATION", out.Intent)
	assert.Equal(t, 87, out.Confidence)
	require.NotNil(t, out.Obligation)
	assert.Equal(t, "777", out.Obligation.DocumentNumber)
	require.NotNil(t, out.VendorSuggestion)
	assert.Equal(t, "v1", out.VendorSuggestion.ID)
	assert.Nil(t, out.Duplicate)
	assert.Equal(t, "image/png", env.ai.Last.MIMEType)
	assert.Empty(t, env.store.AllDocuments(), "extraer no persiste")
}

func TestExtract_Errores(t *testing.T) {
	env := newTestEnv(&entity.ExtractionResult{Intent: entity.IntentNewObligation})

	var e dto.ErrorResponse
	resp := do(t, env.app, multipartRequest(t, "/api/documents/extract", part{"file", "nota.txt", []byte("hola mundo")}), &e)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Equal(t, "UNSUPPORTED_MEDIA", e.Code)

	resp = do(t, env.app, multipartRequest(t, "/api/documents/extract", part{"otro", "x.png", pngHeader}), nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	env.ai.Err = assert.AnError
	resp = do(t, env.app, multipartRequest(t, "/api/documents/extract", part{"file", "x.png", pngHeader}), &e)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "EXTRACTION_SERVICE_ERROR", e.Code)
}

func TestCommit_CreaYLuegoDetectaDuplicado(t *testing.T) {
	env := newTestEnv(nil)
	body := dto.CommitObligationRequest{
		DocumentNumber: "9001",
		IssuerTaxID:    "98765432000198",
		IssuerName:     "Distribuidora Sul SA",
		TotalCents:     10000,
		IssueDate:      "2024-01-31",
		SplitCount:     3,
	}

	var out dto.CommitObligationResponse
	resp := do(t, env.app, jsonRequest(t, "/api/documents/commit", body), &out)

	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.True(t, out.VendorCreated)
	assert.Equal(t, "NF 9001 - Distribuidora Sul SA", out.Description)
	require.Len(t, out.Installments, 3)
	assert.Equal(t, int64(3334), out.Installments[2].AmountCents)
	assert.Equal(t, "2024-02-29", out.Installments[1].DueDate)

	var e dto.ErrorResponse
	resp = do(t, env.app, jsonRequest(t, "/api/documents/commit", body), &e)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE", e.Code)
}

func TestCommit_Validaciones(t *testing.T) {
	env := newTestEnv(nil)

	var e dto.ErrorResponse
	resp := do(t, env.app, jsonRequest(t, "/api/documents/commit", dto.CommitObligationRequest{
		DocumentNumber: "1", IssuerTaxID: "98765432000198", IssuerName: "X", TotalCents: 100, IssueDate: "31/01/2024",
	}), &e)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", e.Code)

	resp = do(t, env.app, jsonRequest(t, "/api/documents/commit", dto.CommitObligationRequest{
		IssuerTaxID: "98765432000198", IssuerName: "X", TotalCents: 100,
	}), &e)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "UNIDENTIFIABLE_DOCUMENT", e.Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// POST /api/installments
// ──────────────────────────────────────────────────────────────────────────────

func TestSettle(t *testing.T) {
	env := newTestEnv(nil)
	env.store.AddDocument(&entity.PayableDocument{ID: "d1", ReferenceKey: "1", DocumentNumber: "1", TotalCents: 10000},
		&entity.Installment{ID: "i1", DocumentID: "d1", SequenceNumber: 1, AmountCents: 10000, DueDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)})
	body := dto.SettleRequest{PaidCents: 10250, InterestCents: 250, PaidAt: "2024-03-05"}

	var out dto.InstallmentResponse
	resp := do(t, env.app, jsonRequest(t, "/api/installments/i1/settle", body), &out)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, out.Paid)
	assert.Equal(t, int64(10250), out.PaidCents)
	require.NotNil(t, out.PaidAt)
	assert.Equal(t, "2024-03-05", out.PaidAt.Format("2006-01-02"))

	var e dto.ErrorResponse
	resp = do(t, env.app, jsonRequest(t, "/api/installments/i1/settle", body), &e)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = do(t, env.app, jsonRequest(t, "/api/installments/nada/settle", body), &e)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", e.Code)
}

func TestSplit(t *testing.T) {
	env := newTestEnv(nil)

	var out dto.SplitResponse
	resp := do(t, env.app, jsonRequest(t, "/api/installments/split", dto.SplitRequest{TotalCents: 10000, Count: 3, IssueDate: "2024-01-31"}), &out)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(10000), out.TotalCents)
	require.Len(t, out.Installments, 3)
	var amounts, dates []string
	for _, e := range out.Installments {
		amounts = append(amounts, decimal.NewFromInt(e.AmountCents).String())
		dates = append(dates, e.DueDate)
	}
	assert.Equal(t, "3333,3333,3334", strings.Join(amounts, ","))
	assert.Equal(t, []string{"2024-01-31", "2024-02-29", "2024-03-31"}, dates)

	resp = do(t, env.app, jsonRequest(t, "/api/installments/split", dto.SplitRequest{TotalCents: 10000, Count: 0}), nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
