package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RunsTotal.WithLabelValues("ok").Inc()
	m.FilesTotal.WithLabelValues("vectorized").Add(3)
	m.DocFreqTerms.Set(42)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.FilesTotal.WithLabelValues("vectorized")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.DocFreqTerms))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "sourcevec_runs_total")
	assert.Contains(t, names, "sourcevec_document_frequency_terms")
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
