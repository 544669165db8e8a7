package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pokerverse/internal/logging"
	"pokerverse/internal/table"
)

var logger = log.With().Str("logger_name", "ledger::recorder").Logger()

const recordTimeout = 5 * time.Second

// Recorder turns hand-end notifications into ledger rows and, when a
// publisher is set, bus messages.
type Recorder struct {
	service   Service
	publisher Publisher
}

func NewRecorder(service Service, publisher Publisher) *Recorder {
	return &Recorder{service: service, publisher: publisher}
}

// HandEnded is a table.HandEndHook.
func (r *Recorder) HandEnded(info table.HandEndInfo) {
	rec := NewHandRecord(uuid.NewString(), info)
	l := logger.With().Str(logging.RoomKey, rec.RoomID).Int(logging.HandKey, rec.HandNumber).Logger()

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := r.service.RecordHand(ctx, rec); err != nil {
		l.Error().Err(err).Msg("Failed to record hand")
	}
	if r.publisher != nil {
		if err := r.publisher.Publish(rec); err != nil {
			l.Warn().Err(err).Msg("Failed to publish hand")
		}
	}
}
