package repository

import (
	"fmt"
	"time"
)

// Periodos de agrupación del resumen de movimientos (alineados al calendario).
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"  // semana ISO, inicia lunes
	PeriodMonth = "month" // mes calendario
)

// SummaryFilter entrada del resumen por periodo. Period vacío = day.
type SummaryFilter struct {
	Period    string
	StartDate *time.Time
	EndDate   *time.Time // día inclusivo
}

// Normalize aplica el default y valida el periodo.
func (f *SummaryFilter) Normalize() bool {
	if f.Period == "" {
		f.Period = PeriodDay
	}
	switch f.Period {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return true
	}
	return false
}

// EndExclusive devuelve EndDate + 1 día.
func (f *SummaryFilter) EndExclusive() *time.Time {
	return endExclusive(f.EndDate)
}

// SummaryRow total de un tipo de movimiento dentro de un bucket.
type SummaryRow struct {
	BucketStart   time.Time
	Period        string // etiqueta del bucket: 2006-01-02, 2006-W01 o 2006-01
	MovementType  string
	TotalQuantity int64
	Count         int64
}

// BucketStart trunca t (en UTC) al inicio de su bucket, igual que date_trunc de PostgreSQL.
func BucketStart(period string, t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case PeriodWeek:
		wd := int(day.Weekday())
		if wd == 0 {
			wd = 7
		}
		return day.AddDate(0, 0, -(wd - 1))
	case PeriodMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// BucketLabel formatea el inicio del bucket como etiqueta legible.
func BucketLabel(period string, start time.Time) string {
	start = start.UTC()
	switch period {
	case PeriodWeek:
		year, week := start.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case PeriodMonth:
		return start.Format("2006-01")
	default:
		return start.Format("2006-01-02")
	}
}
