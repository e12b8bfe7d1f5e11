package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crime-map-service/internal/domain"
	"github.com/couchcryptid/crime-map-service/internal/observability"
)

var reconciledAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type recordingWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (r *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, msgs...)
	return nil
}

func (r *recordingWriter) Close() error {
	r.closed = true
	return nil
}

func testAtlas(t *testing.T) *domain.Atlas {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(reconciledAt))
	t.Cleanup(func() { domain.SetClock(nil) })

	table := domain.NewCrimeLevelTable(
		domain.DistrictEntry{District: "South", Stations: domain.StationLevels{
			{Station: "Rathmines", Level: domain.Low},
			{Station: "Kilmainham", Level: domain.VeryLow},
		}},
	)
	districts := []domain.District{
		{Name: "Southside"},
		{Name: "South Central"},
		{Name: "Tallaght"},
	}
	return domain.Reconcile(districts, nil, table, domain.DefaultOverrides)
}

func testWriter(rw *recordingWriter) *Writer {
	return &Writer{
		writer:  rw,
		metrics: observability.NewMetricsForTesting(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSerializeToMessage(t *testing.T) {
	d := &domain.District{
		Name: "Dublin South",
		Derived: domain.DistrictAttributes{
			Classification:  domain.Low,
			MatchedDistrict: "South",
			StationLevels:   domain.StationLevels{{Station: "Rathmines", Level: domain.Low}},
		},
	}

	msg, err := serializeToMessage(d, reconciledAt)
	require.NoError(t, err)

	assert.Equal(t, []byte("South"), msg.Key)
	assert.JSONEq(t, `{
		"district": "Dublin South",
		"matched_district": "South",
		"classification": "low",
		"color": "#a3e635",
		"overridden": false,
		"stations": [{"station": "Rathmines", "level": "low"}],
		"reconciled_at": "2026-03-14T09:30:00Z"
	}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "classification", msg.Headers[0].Key)
	assert.Equal(t, []byte("low"), msg.Headers[0].Value)
	assert.Equal(t, "reconciled_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2026-03-14T09:30:00Z"), msg.Headers[1].Value)
}

func TestWriter_Publish(t *testing.T) {
	rw := &recordingWriter{}
	w := testWriter(rw)

	require.NoError(t, w.Publish(context.Background(), testAtlas(t)))

	// Southside and South Central both match "South"; only the first is published.
	require.Len(t, rw.msgs, 2)
	assert.Equal(t, "South", string(rw.msgs[0].Key))
	assert.Equal(t, "Tallaght", string(rw.msgs[1].Key))

	var m DistrictMessage
	require.NoError(t, json.Unmarshal(rw.msgs[1].Value, &m))
	assert.Equal(t, domain.High, m.Classification)
	assert.True(t, m.Overridden)
	assert.Empty(t, m.MatchedDistrict)
	assert.Equal(t, reconciledAt, m.ReconciledAt)

	assert.Equal(t, 2.0, testutil.ToFloat64(w.metrics.MessagesProduced))
}

func TestWriter_PublishEmptyAtlas(t *testing.T) {
	rw := &recordingWriter{err: errors.New("must not be called")}
	w := testWriter(rw)

	require.NoError(t, w.Publish(context.Background(), domain.Reconcile(nil, nil, nil, nil)))
	assert.Empty(t, rw.msgs)
}

func TestWriter_PublishError(t *testing.T) {
	rw := &recordingWriter{err: errors.New("broker unavailable")}
	w := testWriter(rw)

	err := w.Publish(context.Background(), testAtlas(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
	assert.Equal(t, 0.0, testutil.ToFloat64(w.metrics.MessagesProduced))
}

func TestWriter_Close(t *testing.T) {
	rw := &recordingWriter{}
	require.NoError(t, testWriter(rw).Close())
	assert.True(t, rw.closed)
}
