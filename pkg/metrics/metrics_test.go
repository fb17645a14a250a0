package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.IncReservationCreated("lesson")
		m.IncSlotConflict()
		m.AddHoldsExpired(3)
		m.IncInvoiceSettled("stored_credit")
		m.ObserveDBQuery("query", time.Millisecond, errors.New("boom"))
		m.ObserveHTTPRequest("GET", "/x", 200, time.Millisecond)
		m.SetDBPoolStats(1, 1, 0, 0)
		m.IncEventPublished("invoice.expired")
		m.IncJobRun("sweep", "ok")
	})
}

func TestMetrics_DomainCounters(t *testing.T) {
	m := NewWithRegistry("test", prometheus.NewRegistry())

	m.IncReservationCreated("course")
	m.IncReservationCreated("course")
	m.IncSlotConflict()
	m.AddHoldsExpired(2)
	m.AddHoldsExpired(0)
	m.IncInvoiceSettled("hosted_checkout")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reservationsCreated.WithLabelValues("course")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.slotConflicts))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.holdsExpired))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invoicesSettled.WithLabelValues("hosted_checkout")))
}
