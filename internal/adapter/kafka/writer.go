package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/crime-map-service/internal/config"
	"github.com/couchcryptid/crime-map-service/internal/domain"
	"github.com/couchcryptid/crime-map-service/internal/observability"
)

// DistrictMessage is the value published for each district after a refresh.
type DistrictMessage struct {
	District        string                `json:"district"`
	MatchedDistrict string                `json:"matched_district,omitempty"`
	Classification  domain.Classification `json:"classification"`
	Color           string                `json:"color"`
	Overridden      bool                  `json:"overridden"`
	Stations        domain.StationLevels  `json:"stations"`
	ReconciledAt    time.Time             `json:"reconciled_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes district classifications to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// Publish writes one message per district label in a single WriteMessages
// call. Keys are the district label so a compacted topic keeps the latest
// classification of each district; when several polygons share a label the
// first one is published.
func (w *Writer) Publish(ctx context.Context, atlas *domain.Atlas) error {
	districts := atlas.Districts()
	if len(districts) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(districts))
	msgs := make([]kafkago.Message, 0, len(districts))
	for i := range districts {
		d := &districts[i]
		if seen[d.Label()] {
			continue
		}
		seen[d.Label()] = true
		msg, err := serializeToMessage(d, atlas.ReconciledAt())
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write district messages: %w", err)
	}
	w.metrics.MessagesProduced.Add(float64(len(msgs)))
	w.logger.Debug("published district classifications", "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a decorated district into a Kafka message.
func serializeToMessage(d *domain.District, reconciledAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(DistrictMessage{
		District:        d.DisplayName(),
		MatchedDistrict: d.Derived.MatchedDistrict,
		Classification:  d.Derived.Classification,
		Color:           d.Derived.Classification.Color(),
		Overridden:      d.Derived.Overridden,
		Stations:        d.Derived.StationLevels,
		ReconciledAt:    reconciledAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize district %q: %w", d.Label(), err)
	}
	return kafkago.Message{
		Key:   []byte(d.Label()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "classification", Value: []byte(d.Derived.Classification)},
			{Key: "reconciled_at", Value: []byte(reconciledAt.Format(time.RFC3339))},
		},
	}, nil
}
