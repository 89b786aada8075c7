package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStageRecorder(t *testing.T) {
	RegisterSearchMetrics()
	RegisterSearchMetrics()

	before := testutil.ToFloat64(SearchTotal.WithLabelValues("semantic"))
	StageRecorder{}.RecordStage("semantic")
	if got := testutil.ToFloat64(SearchTotal.WithLabelValues("semantic")); got-before != 1 {
		t.Errorf("search_total{semantic} delta = %v, want 1", got-before)
	}
}

func TestRecordQuotaRejection(t *testing.T) {
	before := testutil.ToFloat64(QuotaRejectionsTotal)
	RecordQuotaRejection()
	if got := testutil.ToFloat64(QuotaRejectionsTotal); got-before != 1 {
		t.Errorf("quota_rejections_total delta = %v, want 1", got-before)
	}
}
