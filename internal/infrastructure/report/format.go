// Package report genera el resumen de un lote de importación en PDF (maroto) y XLSX (excelize).
package report

import (
	"strconv"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
)

// formatBRL formatea centavos como "R$ 1.234,56".
func formatBRL(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	reais := strconv.FormatInt(cents/100, 10)
	frac := cents % 100
	out := "R$ " + sign + groupThousands(reais) + ","
	if frac < 10 {
		out += "0"
	}
	return out + strconv.FormatInt(frac, 10)
}

// groupThousands inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000"
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}

func outcomeLabel(o entity.Outcome) string {
	switch o {
	case entity.OutcomeCommitted:
		return "Importado"
	case entity.OutcomeDuplicate:
		return "Duplicado"
	default:
		return "Error"
	}
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
