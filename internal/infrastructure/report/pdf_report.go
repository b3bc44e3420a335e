package report

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// BatchPDF genera el comprobante del lote en A4 apaisado:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  Lote + fechas                │  Totales por resultado       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Archivo | Documento | Resultado | Cuotas | Total | Detalle │
//	└─────────────────────────────────────────────────────────────┘
func BatchPDF(summary *entity.BatchSummary) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Importación de NF-e", true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(summary))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	for _, r := range tableRows(summary.Files) {
		m.AddRows(r)
	}
	if len(summary.Files) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Lote sin archivos.", props.Text{Align: align.Center, Color: colorGray, Top: 2}),
		)))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar reporte: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(s *entity.BatchSummary) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("IMPORTACIÓN DE NF-e", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Lote: "+nonEmpty(s.BatchID, "—"), props.Text{Size: 8, Top: 9, Color: colorGray}),
			text.New(fmt.Sprintf("Inicio: %s   |   Fin: %s",
				s.StartedAt.Format("02/01/2006 15:04:05"),
				s.FinishedAt.Format("02/01/2006 15:04:05"),
			), props.Text{Size: 8, Top: 13, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(fmt.Sprintf("%d archivo(s)", s.Total), props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 1,
			}),
			text.New(fmt.Sprintf("Importados: %d   Duplicados: %d   Errores: %d", s.Committed, s.Duplicates, s.Failed), props.Text{
				Size: 9, Align: align.Right, Top: 9,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Archivo", 3, align.Left),
		h("Documento", 2, align.Left),
		h("Resultado", 1, align.Center),
		h("Cuotas", 1, align.Center),
		h("Total", 1, align.Right),
		h("Detalle", 4, align.Left),
	)
}

func tableRows(files []entity.FileResult) []core.Row {
	out := make([]core.Row, 0, len(files))
	for _, f := range files {
		status := props.Text{Size: 8, Align: align.Center, Top: 1}
		if f.Outcome == entity.OutcomeFailed {
			status.Color = colorRed
			status.Style = fontstyle.Bold
		}
		total := "—"
		if f.TotalCents > 0 {
			total = formatBRL(f.TotalCents)
		}
		out = append(out, row.New(7).Add(
			col.New(3).Add(text.New(f.FileName, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(nonEmpty(f.DocumentNumber, "—"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(outcomeLabel(f.Outcome), status)),
			col.New(1).Add(text.New(fmt.Sprintf("%d", f.InstallmentCount), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(total, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(4).Add(text.New(f.Message, props.Text{Size: 7, Top: 1, Left: 1, Color: colorGray})),
		))
	}
	return out
}
