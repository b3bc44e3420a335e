package payable

import (
	"fmt"
	"time"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
)

// DefaultTermDays plazo entre cuotas cuando el documento no trae vencimiento.
const DefaultTermDays = 30

// Entry cuota sintetizada, lista para persistir.
type Entry struct {
	Sequence    int
	AmountCents int64
	DueDate     time.Time
}

// BuildSchedule arma el cronograma de pagos de un documento.
//
// Sin cuotas en el documento se genera una sola por el total con vencimiento en la emisión.
// Con cuotas se respetan cantidad, orden y montos; los vencimientos faltantes son
// emisión + 30*n días (o la emisión misma si es cuota única). La suma siempre es igual al
// total: una diferencia de hasta 1 centavo por cuota se absorbe en la última, más que eso
// es ErrInvalidAmount.
func BuildSchedule(totalCents int64, issueDate time.Time, raw []entity.RawInstallment) ([]Entry, error) {
	if totalCents <= 0 {
		return nil, fmt.Errorf("%w: total %d centavos", domain.ErrInvalidAmount, totalCents)
	}
	issue := dateOnly(issueDate)

	if len(raw) == 0 {
		return []Entry{{Sequence: 1, AmountCents: totalCents, DueDate: issue}}, nil
	}

	n := len(raw)
	entries := make([]Entry, n)
	var sum int64
	for i, r := range raw {
		seq := i + 1
		amount := entity.ToCents(r.Amount)
		if amount <= 0 {
			return nil, fmt.Errorf("%w: cuota %d con monto %s", domain.ErrInvalidAmount, seq, r.Amount.String())
		}
		entries[i] = Entry{Sequence: seq, AmountCents: amount, DueDate: dueDate(issue, seq, n, r.DueDate)}
		sum += amount
	}

	diff := totalCents - sum
	if diff != 0 {
		if abs(diff) > int64(n) {
			return nil, fmt.Errorf("%w: suma de cuotas %d difiere del total %d", domain.ErrInvalidAmount, sum, totalCents)
		}
		last := &entries[n-1]
		if last.AmountCents+diff <= 0 {
			return nil, fmt.Errorf("%w: ajuste de redondeo deja la última cuota sin monto", domain.ErrInvalidAmount)
		}
		last.AmountCents += diff
	}
	return entries, nil
}

// SplitEvenly divide total en count cuotas mensuales iguales; el resto va a la última.
// Vencimientos: emisión, emisión + 1 mes, ... (ajustado al último día del mes si no existe).
func SplitEvenly(totalCents int64, count int, issueDate time.Time) ([]Entry, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: cantidad de cuotas debe ser al menos 1", domain.ErrInvalidInput)
	}
	if totalCents <= 0 {
		return nil, fmt.Errorf("%w: total %d centavos", domain.ErrInvalidAmount, totalCents)
	}
	if totalCents < int64(count) {
		return nil, fmt.Errorf("%w: %d centavos no alcanzan para %d cuotas", domain.ErrInvalidInput, totalCents, count)
	}
	issue := dateOnly(issueDate)
	base := totalCents / int64(count)
	entries := make([]Entry, count)
	for i := range entries {
		entries[i] = Entry{
			Sequence:    i + 1,
			AmountCents: base,
			DueDate:     AddMonths(issue, i),
		}
	}
	entries[count-1].AmountCents += totalCents - base*int64(count)
	return entries, nil
}

// AddMonths suma meses sin desbordar al mes siguiente (31/01 + 1 mes = 28 o 29/02).
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

// Total suma de las cuotas.
func Total(entries []Entry) int64 {
	var s int64
	for _, e := range entries {
		s += e.AmountCents
	}
	return s
}

func dueDate(issue time.Time, seq, n int, explicit *time.Time) time.Time {
	if explicit != nil {
		return dateOnly(*explicit)
	}
	if n == 1 {
		return issue
	}
	return issue.AddDate(0, 0, DefaultTermDays*seq)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
