package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

const (
	streamName     = "BID_EVENTS"
	subjectPrefix  = "bid.events."
	eventRetention = 24 * time.Hour
)

// NATSPublisher publishes accepted-bid events to a JetStream stream for
// archival and cross-service consumption
type NATSPublisher struct {
	js jetstream.JetStream
}

// NewNATSPublisher connects the publisher to an existing NATS connection
// and ensures the bid events stream exists
func NewNATSPublisher(nc *nats.Conn) (*NATSPublisher, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        streamName,
		Description: "Accepted bid events for archival and broadcast",
		Subjects:    []string{subjectPrefix + "*"},
		Storage:     jetstream.FileStorage,
		MaxAge:      eventRetention,
		Replicas:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create/update stream: %w", err)
	}

	log.Info().Str("stream", streamName).Msg("bid event stream ready")
	return &NATSPublisher{js: js}, nil
}

func (p *NATSPublisher) PublishBidAccepted(ctx context.Context, event BidEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal bid event: %w", err)
	}

	if _, err := p.js.Publish(ctx, subjectPrefix+event.LotID, data); err != nil {
		return fmt.Errorf("failed to publish bid event: %w", err)
	}
	return nil
}
