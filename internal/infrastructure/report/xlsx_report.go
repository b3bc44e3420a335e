package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
)

const (
	sheetFiles   = "Archivos"
	sheetSummary = "Resumen"
)

var fileColumns = []any{
	"Archivo", "Estado", "Resultado", "Código", "Número", "Referencia",
	"Proveedor", "Proveedor nuevo", "Cuotas", "Total (R$)", "Coincidencia", "Detalle",
}

// BatchXLSX genera una planilla con una fila por archivo y una hoja de totales.
func BatchXLSX(summary *entity.BatchSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetFiles); err != nil {
		return nil, fmt.Errorf("xlsx: renombrar hoja: %w", err)
	}
	if err := f.SetSheetRow(sheetFiles, "A1", &fileColumns); err != nil {
		return nil, fmt.Errorf("xlsx: cabecera: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}
	_ = f.SetRowStyle(sheetFiles, 1, 1, bold)

	for i, r := range summary.Files {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []any{
			r.FileName,
			string(r.State),
			outcomeLabel(r.Outcome),
			r.Kind,
			r.DocumentNumber,
			r.ReferenceKey,
			r.VendorID,
			r.VendorCreated,
			r.InstallmentCount,
			float64(r.TotalCents) / 100,
			r.MatchedOn,
			r.Message,
		}
		if err := f.SetSheetRow(sheetFiles, cell, &values); err != nil {
			return nil, fmt.Errorf("xlsx: fila %d: %w", i+2, err)
		}
	}
	_ = f.SetColWidth(sheetFiles, "A", "A", 32)
	_ = f.SetColWidth(sheetFiles, "F", "F", 48)
	_ = f.SetColWidth(sheetFiles, "L", "L", 60)

	if _, err := f.NewSheet(sheetSummary); err != nil {
		return nil, fmt.Errorf("xlsx: hoja resumen: %w", err)
	}
	rows := [][]any{
		{"Lote", summary.BatchID},
		{"Inicio", summary.StartedAt.Format("2006-01-02 15:04:05")},
		{"Fin", summary.FinishedAt.Format("2006-01-02 15:04:05")},
		{"Archivos", summary.Total},
		{"Importados", summary.Committed},
		{"Duplicados", summary.Duplicates},
		{"Errores", summary.Failed},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetSummary, cell, &r); err != nil {
			return nil, fmt.Errorf("xlsx: resumen: %w", err)
		}
	}
	_ = f.SetColStyle(sheetSummary, "A", bold)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: escribir: %w", err)
	}
	return buf.Bytes(), nil
}
