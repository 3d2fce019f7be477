package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBucketStartAndLabel(t *testing.T) {
	// 2027-01-01 es viernes: pertenece a la semana ISO 53 de 2026.
	ts := time.Date(2027, 1, 1, 18, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), BucketStart(PeriodDay, ts))
	assert.Equal(t, time.Date(2026, 12, 28, 0, 0, 0, 0, time.UTC), BucketStart(PeriodWeek, ts))
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), BucketStart(PeriodMonth, ts))

	assert.Equal(t, "2027-01-01", BucketLabel(PeriodDay, BucketStart(PeriodDay, ts)))
	assert.Equal(t, "2026-W53", BucketLabel(PeriodWeek, BucketStart(PeriodWeek, ts)))
	assert.Equal(t, "2027-01", BucketLabel(PeriodMonth, BucketStart(PeriodMonth, ts)))
}

func TestBucketStart_SundayBelongsToPreviousMonday(t *testing.T) {
	sunday := time.Date(2026, 3, 8, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), BucketStart(PeriodWeek, sunday))
}

func TestBucketStart_UsesUTC(t *testing.T) {
	bogota := time.FixedZone("COT", -5*3600)
	ts := time.Date(2026, 3, 31, 21, 0, 0, 0, bogota) // 2026-04-01 02:00 UTC
	assert.Equal(t, "2026-04", BucketLabel(PeriodMonth, BucketStart(PeriodMonth, ts)))
}

func TestBatchFilter_Normalize(t *testing.T) {
	f := BatchFilter{}
	assert.True(t, f.Normalize())
	assert.Equal(t, BatchSortExpiryDate, f.SortBy)
	assert.Equal(t, SortAsc, f.SortDirection)

	assert.False(t, (&BatchFilter{SortBy: "name"}).Normalize())
	assert.False(t, (&BatchFilter{SortDirection: "up"}).Normalize())
}

func TestMovementFilter_Normalize(t *testing.T) {
	f := MovementFilter{}
	assert.True(t, f.Normalize())
	assert.Equal(t, MovementSortCreatedAt, f.SortBy)
	assert.Equal(t, SortDesc, f.SortDirection)

	assert.False(t, (&MovementFilter{Type: "transfer"}).Normalize())
	assert.True(t, (&MovementFilter{Type: "write_off", SortBy: MovementSortQuantity}).Normalize())
}

func TestEndExclusive(t *testing.T) {
	end := time.Date(2026, 2, 28, 15, 0, 0, 0, time.UTC)
	f := MovementFilter{EndDate: &end}
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *f.EndExclusive())
	assert.Nil(t, (&SummaryFilter{}).EndExclusive())
}

func TestSummaryFilter_Normalize(t *testing.T) {
	f := SummaryFilter{}
	assert.True(t, f.Normalize())
	assert.Equal(t, PeriodDay, f.Period)
	assert.False(t, (&SummaryFilter{Period: "quarter"}).Normalize())
}
