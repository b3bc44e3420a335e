package payable_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/payable"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func raw(amounts ...string) []entity.RawInstallment {
	out := make([]entity.RawInstallment, len(amounts))
	for i, a := range amounts {
		out[i] = entity.RawInstallment{Sequence: i + 1, Amount: decimal.RequireFromString(a)}
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// BuildSchedule
// ──────────────────────────────────────────────────────────────────────────────

func TestBuildSchedule_SinCuotas_UnaCuotaEnLaEmision(t *testing.T) {
	issue := day(2024, time.March, 10)

	entries, err := payable.BuildSchedule(15000, issue, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Sequence)
	assert.Equal(t, int64(15000), entries[0].AmountCents)
	assert.Equal(t, issue, entries[0].DueDate)
}

func TestBuildSchedule_FechasExplicitasSePreservan(t *testing.T) {
	issue := day(2024, time.January, 5)
	in := raw("100.00", "100.00", "100.00")
	in[0].DueDate = ptr(day(2024, time.February, 5))
	in[1].DueDate = ptr(day(2024, time.March, 5))
	in[2].DueDate = ptr(day(2024, time.April, 5))

	entries, err := payable.BuildSchedule(30000, issue, in)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Sequence)
		assert.Equal(t, int64(10000), e.AmountCents)
		assert.Equal(t, *in[i].DueDate, e.DueDate)
	}
	assert.Equal(t, int64(30000), payable.Total(entries))
}

func TestBuildSchedule_FechasAutomaticas30Dias(t *testing.T) {
	issue := day(2024, time.January, 1)

	entries, err := payable.BuildSchedule(30000, issue, raw("100", "100", "100"))
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.January, 31), entries[0].DueDate)
	assert.Equal(t, day(2024, time.March, 1), entries[1].DueDate)
	assert.Equal(t, day(2024, time.March, 31), entries[2].DueDate)
	for i := 1; i < len(entries); i++ {
		assert.True(t, entries[i].DueDate.After(entries[i-1].DueDate))
	}
}

func TestBuildSchedule_CuotaUnicaSinFecha_VenceEnLaEmision(t *testing.T) {
	issue := day(2024, time.June, 15)

	entries, err := payable.BuildSchedule(5000, issue, raw("50.00"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, issue, entries[0].DueDate)
}

func TestBuildSchedule_SumaIgualAlTotal(t *testing.T) {
	cases := []struct {
		total   int64
		amounts []string
	}{
		{10000, []string{"33.33", "33.33", "33.33"}},
		{10001, []string{"50.00", "50.00"}},
		{999, []string{"9.99"}},
		{123456, []string{"411.52", "411.52", "411.52"}},
	}
	for _, c := range cases {
		entries, err := payable.BuildSchedule(c.total, day(2024, 1, 1), raw(c.amounts...))
		require.NoError(t, err, "total %d", c.total)
		assert.Equal(t, c.total, payable.Total(entries), "total %d", c.total)
		for i, e := range entries {
			assert.Equal(t, i+1, e.Sequence)
		}
	}
}

func TestBuildSchedule_DiferenciaGrandeSeRechaza(t *testing.T) {
	_, err := payable.BuildSchedule(30000, day(2024, 1, 1), raw("100", "100"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestBuildSchedule_MontosInvalidos(t *testing.T) {
	_, err := payable.BuildSchedule(0, day(2024, 1, 1), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = payable.BuildSchedule(1000, day(2024, 1, 1), raw("10.00", "0"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

// ──────────────────────────────────────────────────────────────────────────────
// SplitEvenly
// ──────────────────────────────────────────────────────────────────────────────

func TestSplitEvenly_RestoEnLaUltima(t *testing.T) {
	issue := day(2024, time.January, 10)

	entries, err := payable.SplitEvenly(10000, 3, issue)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, []int64{3333, 3333, 3334}, []int64{entries[0].AmountCents, entries[1].AmountCents, entries[2].AmountCents})
	assert.Equal(t, day(2024, time.January, 10), entries[0].DueDate)
	assert.Equal(t, day(2024, time.February, 10), entries[1].DueDate)
	assert.Equal(t, day(2024, time.March, 10), entries[2].DueDate)
}

func TestSplitEvenly_FinDeMes(t *testing.T) {
	entries, err := payable.SplitEvenly(300, 3, day(2023, time.January, 31))
	require.NoError(t, err)
	assert.Equal(t, day(2023, time.February, 28), entries[1].DueDate)
	assert.Equal(t, day(2023, time.March, 31), entries[2].DueDate)
}

func TestSplitEvenly_Validaciones(t *testing.T) {
	_, err := payable.SplitEvenly(100, 0, day(2024, 1, 1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = payable.SplitEvenly(2, 3, day(2024, 1, 1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = payable.SplitEvenly(-5, 1, day(2024, 1, 1))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestAddMonths_CruceDeAnio(t *testing.T) {
	assert.Equal(t, day(2025, time.February, 15), payable.AddMonths(day(2024, time.November, 15), 3))
	assert.Equal(t, day(2024, time.February, 29), payable.AddMonths(day(2024, time.January, 31), 1))
}
