// AngelaMos | 2026
// recorder_test.go

package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader sdkmetric.Reader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, m.Name)
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	return totals
}

func TestRecorderCounts(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	rec, err := New(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	rec.ReportCreated(ctx, "high")
	rec.ReportCreated(ctx, "low")
	rec.StatusChanged(ctx, "reported", "responding")
	rec.LoginAttempt(ctx, "session", true)
	rec.LoginAttempt(ctx, "token", false)
	rec.LoginAttempt(ctx, "token", false)
	rec.MessagePosted(ctx, "alert")

	totals := collect(t, reader)
	assert.Equal(t, int64(2), totals["emergency_reports_total"])
	assert.Equal(t, int64(1), totals["report_status_changes_total"])
	assert.Equal(t, int64(3), totals["login_attempts_total"])
	assert.Equal(t, int64(1), totals["messages_posted_total"])
}
