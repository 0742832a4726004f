package prometrics

import (
	"testing"

	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CounterByKey(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New("storefront", "", reg).RegisterDefaults()

	r.Counter(observability.MUsecaseRequests).Add(1,
		observability.L("use_case", "order.place"),
		observability.L("outcome", "success"),
	)
	r.Counter(observability.MUsecaseRequests).Bind(
		observability.L("use_case", "order.place"),
		observability.L("outcome", "success"),
	).Add(2)

	v, ok := r.counters.Load(string(observability.MUsecaseRequests))
	require.True(t, ok)
	cv := v.(*prometheus.CounterVec)
	assert.Equal(t, 3.0, testutil.ToFloat64(cv.WithLabelValues("order.place", "success")))
}

func TestRegistry_UnknownKeyIsNop(t *testing.T) {
	r := New("storefront", "", prometheus.NewRegistry())

	assert.NotPanics(t, func() {
		r.Counter("missing").Add(1, observability.L("a", "b"))
		r.Histogram("missing").Observe(1)
	})
}

func TestRegistry_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New("storefront", "", reg)

	assert.NotPanics(t, func() {
		r.NewCounter("dup_total", "help", "k")
		r.NewCounter("dup_total", "help", "k")
		r.NewHistogram("dup_seconds", "help", prometheus.DefBuckets, "k")
		r.NewHistogram("dup_seconds", "help", prometheus.DefBuckets, "k")
	})
}
