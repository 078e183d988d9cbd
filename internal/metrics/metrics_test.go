package metrics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k-negishi/calendar-event-loader/internal/domain"
)

func TestRecorder_Observe(t *testing.T) {
	r := NewRecorder()

	r.ObserveLoaded("JSON", 3)
	r.ObserveLoaded("JSON", 2)
	r.ObserveFailure("Excel", &domain.LoadError{
		Source: "Excel",
		Errors: []*domain.RecordError{{Unit: domain.UnitRow, Position: 2}, {Unit: domain.UnitRow, Position: 5}},
	})
	r.ObserveFailure("Excel", fmt.Errorf("%w: fecha_inicio", domain.ErrMissingColumn))

	assert.Equal(t, float64(5), testutil.ToFloat64(r.eventsLoaded.WithLabelValues("JSON")))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.recordsRejected.WithLabelValues("Excel")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.loadFailures.WithLabelValues("Excel", "invalid_records")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.loadFailures.WithLabelValues("Excel", "missing_column")))
}

func TestRecorder_Totals(t *testing.T) {
	r := NewRecorder()
	r.ObserveLoaded("JSON", 2)
	r.ObserveLoaded("iCalendar", 1)
	r.ObserveFailure("Excel", fmt.Errorf("%w: eventos.xlsx", domain.ErrFileNotFound))

	totals, err := r.Totals()
	require.NoError(t, err)
	assert.Equal(t, float64(3), totals["event_loader_events_loaded_total"])
	assert.Equal(t, float64(1), totals["event_loader_load_failures_total"])
	assert.Zero(t, totals["event_loader_records_rejected_total"])
}

func TestReason(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{err: fmt.Errorf("%w: x.json", domain.ErrFileNotFound), expected: "file_not_found"},
		{err: fmt.Errorf("%w: bad", domain.ErrMalformedDocument), expected: "malformed_document"},
		{err: domain.ErrWrongShape, expected: "wrong_shape"},
		{err: domain.ErrCannotOpen, expected: "cannot_open"},
		{err: errors.New("boom"), expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, Reason(tt.err))
		})
	}
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveLoaded("JSON", 1)

	path := filepath.Join(t.TempDir(), "event_loader.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `event_loader_events_loaded_total{source="JSON"} 1`)
}
