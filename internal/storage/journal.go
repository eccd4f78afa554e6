package storage

import (
	"context"
	"fmt"
	"time"

	"ammcore/internal/amm"
	"ammcore/internal/events"
	"ammcore/internal/model"
)

// JournalSink encodes committed handler events and appends them to storage.
type JournalSink struct {
	encoder *events.Encoder
	storage Storage
	now     func() time.Time
}

func NewJournalSink(encoder *events.Encoder, storage Storage) *JournalSink {
	return &JournalSink{encoder: encoder, storage: storage, now: time.Now}
}

// Publish implements amm.EventSink.
func (j *JournalSink) Publish(ctx context.Context, ev amm.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	record, err := j.encoder.Encode(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Kind, err)
	}
	record.IngestedAt = j.now().UTC().Format(time.RFC3339Nano)
	return j.storage.PutLogBatch([]model.LogRecord{record})
}
