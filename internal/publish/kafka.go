// Package publish sends dashboard snapshots to Kafka so that renderers
// outside this process can follow along.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/mr1hm/quake-explorer/internal/config"
	"github.com/mr1hm/quake-explorer/internal/dashboard"
)

const (
	queueSize    = 32
	writeTimeout = 10 * time.Second
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher is a dashboard renderer. Render only enqueues, so a slow or
// unreachable broker never holds up a recompute; when the queue is full the
// snapshot is dropped.
type Publisher struct {
	writer  messageWriter
	logger  *slog.Logger
	queue   chan *dashboard.Snapshot
	dropped atomic.Uint64
	wg      sync.WaitGroup
	once    sync.Once
}

func NewPublisher(cfg config.KafkaConfig, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
	}
	return newPublisher(w, logger)
}

func newPublisher(w messageWriter, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		writer: w,
		logger: logger,
		queue:  make(chan *dashboard.Snapshot, queueSize),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *Publisher) Render(_ context.Context, s *dashboard.Snapshot) error {
	select {
	case p.queue <- s:
	default:
		p.dropped.Add(1)
		p.logger.Warn("snapshot publish queue full, dropping", "fingerprint", s.Fingerprint)
	}
	return nil
}

func (p *Publisher) Dropped() uint64 {
	return p.dropped.Load()
}

func (p *Publisher) run() {
	defer p.wg.Done()

	for s := range p.queue {
		msg, err := serializeToMessage(s)
		if err != nil {
			p.logger.Error("failed to serialize snapshot", "error", err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err = p.writer.WriteMessages(ctx, msg)
		cancel()
		if err != nil {
			p.logger.Error("failed to publish snapshot", "fingerprint", s.Fingerprint, "error", err)
		}
	}
}

// Close flushes what is queued and closes the underlying writer.
func (p *Publisher) Close() error {
	var err error
	p.once.Do(func() {
		close(p.queue)
		p.wg.Wait()
		err = p.writer.Close()
	})
	return err
}

func serializeToMessage(s *dashboard.Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot: %w", err)
	}
	years := strconv.Itoa(s.Filters.Years.Start) + "-" + strconv.Itoa(s.Filters.Years.End)
	return kafkago.Message{
		Key:   []byte(s.Fingerprint),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "metric", Value: []byte(s.Top.Metric)},
			{Key: "years", Value: []byte(years)},
			{Key: "effective", Value: []byte(strconv.Itoa(s.Effective))},
		},
	}, nil
}
