package service

import (
	"testing"
	"time"

	"vetpos-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDueDate(t *testing.T) {
	applied := day(2024, time.January, 1)
	assert.Equal(t, day(2024, time.January, 31), DueDate(applied, 30))
	assert.Equal(t, day(2024, time.April, 1), DueDate(applied, 91))
}

func TestDisplayStatus(t *testing.T) {
	today := day(2024, time.June, 15)

	cases := []struct {
		name string
		v    models.Vencimiento
		want string
	}{
		{
			name: "supplied wins over past due",
			v:    models.Vencimiento{Supplied: true, DueDate: day(2024, time.January, 1)},
			want: models.VencimientoSuministrado,
		},
		{
			name: "past due is vencido",
			v:    models.Vencimiento{DueDate: day(2024, time.June, 14)},
			want: models.VencimientoVencido,
		},
		{
			name: "due today is proximo",
			v:    models.Vencimiento{DueDate: today},
			want: models.VencimientoProximo,
		},
		{
			name: "inside the soon window",
			v:    models.Vencimiento{DueDate: day(2024, time.June, 22)},
			want: models.VencimientoProximo,
		},
		{
			name: "past the soon window",
			v:    models.Vencimiento{DueDate: day(2024, time.June, 23)},
			want: models.VencimientoPendiente,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DisplayStatus(&tc.v, today, DefaultSoonDays))
		})
	}
}

func TestDisplayStatusIgnoresTimeOfDay(t *testing.T) {
	v := models.Vencimiento{DueDate: time.Date(2024, time.June, 15, 8, 0, 0, 0, time.UTC)}
	lateToday := time.Date(2024, time.June, 15, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, models.VencimientoProximo, DisplayStatus(&v, lateToday, DefaultSoonDays))
}

func TestForSaleItemsSkipsUntaggedLines(t *testing.T) {
	applied := day(2024, time.March, 10)
	items := []models.CartItem{
		{ProductoID: 1, Name: "vacuna antirrabica", VencimientoDays: 365},
		{ProductoID: 2, Name: "alimento", VencimientoDays: 0},
		{ProductoID: 3, Name: "pipeta", VencimientoDays: 30},
	}

	vencimientos := ForSaleItems(items, 7, 9, applied)
	require.Len(t, vencimientos, 2)

	first := vencimientos[0]
	assert.Equal(t, int64(1), first.ProductoID)
	assert.Equal(t, int64(7), first.TutorID)
	assert.Equal(t, int64(9), first.PacienteID)
	assert.Equal(t, applied, first.AppliedDate)
	assert.Equal(t, day(2025, time.March, 10), first.DueDate)
	assert.Equal(t, models.VencimientoPendiente, first.Status)

	assert.Equal(t, day(2024, time.April, 9), vencimientos[1].DueDate)
}

func TestForSaleItemsEmptyWhenNothingTagged(t *testing.T) {
	items := []models.CartItem{{ProductoID: 1, VencimientoDays: 0}}
	assert.Empty(t, ForSaleItems(items, 1, 2, time.Now()))
}
