package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/internal/infrastructure/pdfinfo"
	"github.com/jhoicas/fiscal-ingest-api/internal/infrastructure/report"
)

func sampleSummary() *entity.BatchSummary {
	s := &entity.BatchSummary{
		BatchID:    "lote-1",
		StartedAt:  time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2024, 5, 2, 10, 0, 5, 0, time.UTC),
		Total:      3,
	}
	s.Add(entity.FileResult{FileName: "a.xml", State: entity.StateCommitted, Outcome: entity.OutcomeCommitted,
		DocumentNumber: "123", ReferenceKey: "123", InstallmentCount: 3, TotalCents: 123456, VendorCreated: true})
	s.Add(entity.FileResult{FileName: "b.xml", State: entity.StateSkippedDuplicate, Outcome: entity.OutcomeDuplicate,
		Kind: "DUPLICATE", DocumentNumber: "123", MatchedOn: "document_number"})
	s.Add(entity.FileResult{FileName: "c.xml", State: entity.StateExtractFailed, Outcome: entity.OutcomeFailed,
		Kind: "MALFORMED_DOCUMENT", Message: "documento mal formado"})
	return s
}

func TestBatchXLSX(t *testing.T) {
	data, err := report.BatchXLSX(sampleSummary())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Archivos")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Archivo", rows[0][0])
	assert.Equal(t, "a.xml", rows[1][0])
	assert.Equal(t, "Importado", rows[1][2])
	assert.Equal(t, "1234.56", rows[1][9])
	assert.Equal(t, "Duplicado", rows[2][2])
	assert.Equal(t, "MALFORMED_DOCUMENT", rows[3][3])

	summary, err := f.GetRows("Resumen")
	require.NoError(t, err)
	assert.Equal(t, []string{"Importados", "1"}, summary[4])
	assert.Equal(t, []string{"Errores", "1"}, summary[6])
}

func TestBatchPDF(t *testing.T) {
	data, err := report.BatchPDF(sampleSummary())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	info, err := pdfinfo.New().Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Pages)
}

func TestBatchPDF_LoteVacio(t *testing.T) {
	data, err := report.BatchPDF(&entity.BatchSummary{})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
