package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHelpers(t *testing.T) {
	before := testutil.ToFloat64(SourceFailuresTotal.WithLabelValues("timeout"))
	RecordSourceFailure("timeout")
	assert.Equal(t, before+1, testutil.ToFloat64(SourceFailuresTotal.WithLabelValues("timeout")))

	before = testutil.ToFloat64(AnalysesTotal.WithLabelValues("synthetic"))
	RecordAnalysis("synthetic", 0.01)
	assert.Equal(t, before+1, testutil.ToFloat64(AnalysesTotal.WithLabelValues("synthetic")))

	before = testutil.ToFloat64(QueryLogWritesTotal.WithLabelValues("dropped"))
	RecordQueryLogWrite("dropped")
	assert.Equal(t, before+1, testutil.ToFloat64(QueryLogWritesTotal.WithLabelValues("dropped")))

	before = testutil.ToFloat64(KeywordErrorsTotal)
	RecordKeywordError()
	assert.Equal(t, before+1, testutil.ToFloat64(KeywordErrorsTotal))
}
