// AngelaMos | 2026
// consumer_test.go

package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAcker struct {
	acked, nacked int
	requeue       bool
}

func (f *fakeAcker) Ack(uint64, bool) error { f.acked++; return nil }

func (f *fakeAcker) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked++
	f.requeue = requeue
	return nil
}

func (f *fakeAcker) Reject(uint64, bool) error { f.nacked++; return nil }

func delivery(t *testing.T, acker *fakeAcker, body any) amqp.Delivery {
	t.Helper()

	raw, ok := body.([]byte)
	if !ok {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	return amqp.Delivery{Acknowledger: acker, Body: raw}
}

func TestConsumerAcksHandledEvent(t *testing.T) {
	var got ReportEvent
	c := NewConsumer("", "", func(_ context.Context, e ReportEvent) error {
		got = e
		return nil
	}, nil)

	acker := &fakeAcker{}
	dept := int64(7)
	c.process(context.Background(), delivery(t, acker, ReportEvent{
		Type:         TypeReportStatusChanged,
		ReportID:     42,
		Status:       "responding",
		DepartmentID: &dept,
		OccurredAt:   time.Now().UTC(),
	}))

	assert.Equal(t, 1, acker.acked)
	assert.Equal(t, int64(42), got.ReportID)
	require.NotNil(t, got.DepartmentID)
	assert.Equal(t, dept, *got.DepartmentID)
}

func TestConsumerRejectsBadDeliveries(t *testing.T) {
	c := NewConsumer("", "", func(context.Context, ReportEvent) error {
		return errors.New("boom")
	}, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	acker := &fakeAcker{}
	c.process(context.Background(), delivery(t, acker, []byte("{not json")))
	c.process(context.Background(), delivery(t, acker, ReportEvent{ReportID: 1}))

	assert.Equal(t, 0, acker.acked)
	assert.Equal(t, 2, acker.nacked)
	assert.False(t, acker.requeue)
}

func TestLogDispatch(t *testing.T) {
	var buf bytes.Buffer
	handler := LogDispatch(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := handler(context.Background(), ReportEvent{
		Type:           TypeReportStatusChanged,
		ReportID:       3,
		Status:         "resolved",
		PreviousStatus: "responding",
		Severity:       "high",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"dispatch notice"`)
	assert.Contains(t, out, `"report_id":3`)
	assert.Contains(t, out, `"previous_status":"responding"`)
}

func TestNewAMQPPublisherDefaultsQueue(t *testing.T) {
	p := NewAMQPPublisher("amqp://localhost", "")
	assert.Equal(t, DefaultQueue, p.queue)
	require.NoError(t, p.Close())
}
