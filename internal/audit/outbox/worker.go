// Package outbox publishes committed audit rows to Kafka. Rows are written by
// the audit store inside the decision transaction; this worker drains them
// after commit, so a Kafka outage delays the feed but never loses or reorders
// a committed decision.
package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

const pollBatchSize = 100

// Worker polls the outbox table and produces unpublished entries to Kafka.
type Worker struct {
	db       *sql.DB
	client   *kgo.Client
	topic    string
	interval time.Duration
	logger   *slog.Logger
}

// New connects to the brokers and ensures the topic exists.
func New(db *sql.DB, brokers []string, topic string, interval time.Duration, logger *slog.Logger) (*Worker, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := adm.CreateTopic(ctx, 1, 1, nil, topic); err != nil {
		// Already-exists is fine; anything else surfaces on first produce.
		logger.Warn("create audit topic", "topic", topic, "error", err)
	}

	return &Worker{
		db:       db,
		client:   client,
		topic:    topic,
		interval: interval,
		logger:   logger,
	}, nil
}

// Run drains the outbox until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer w.client.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				w.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

type entry struct {
	id      uuid.UUID
	key     string
	payload []byte
}

func (w *Worker) drain(ctx context.Context) error {
	entries, err := w.fetch(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		record := &kgo.Record{
			Topic: w.topic,
			Key:   []byte(e.key),
			Value: e.payload,
		}
		// Synchronous produce keeps publication ordered per key and makes
		// marking safe: a row is only marked after the broker acked it.
		if err := w.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			return fmt.Errorf("produce outbox entry %s: %w", e.id, err)
		}
		if err := w.mark(ctx, e.id); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) fetch(ctx context.Context) ([]entry, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT id, aggregate_id, payload FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, pollBatchSize)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.key, &e.payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}
	return entries, nil
}

func (w *Worker) mark(ctx context.Context, entryID uuid.UUID) error {
	_, err := w.db.ExecContext(ctx,
		`UPDATE outbox SET published_at = $2 WHERE id = $1`, entryID, time.Now())
	if err != nil {
		return fmt.Errorf("mark outbox entry published: %w", err)
	}
	return nil
}
