package repo

import (
	"context"
	"time"

	"voiceform/internal/platform/logger"
	"voiceform/internal/platform/store"
	"voiceform/internal/services/questionnaire/domain"
)

// CapabilityEventsTable is the ClickHouse table capability telemetry lands in.
//
//	CREATE TABLE capability_events (
//	    session_id  String,
//	    capability  LowCardinality(String),
//	    ok          UInt8,
//	    elapsed_ms  Int64,
//	    question_id Int32,
//	    confidence  Float64,
//	    matched     UInt8,
//	    created_at  DateTime64(3)
//	) ENGINE = MergeTree ORDER BY (capability, created_at)
const CapabilityEventsTable = "capability_events"

// CHEventSink writes capability telemetry to ClickHouse.
// Failures are logged and swallowed; telemetry never fails a request
type CHEventSink struct {
	ch  store.Clickhouse
	log *logger.Logger
}

var _ domain.EventSinkPort = (*CHEventSink)(nil)

// NewCHEventSink constructs a ClickHouse-backed event sink
func NewCHEventSink(ch store.Clickhouse) *CHEventSink {
	return &CHEventSink{ch: ch, log: logger.Named("questionnaire-events")}
}

// Record implements domain.EventSinkPort
func (s *CHEventSink) Record(ctx context.Context, ev domain.CapabilityEvent) {
	row := []any{
		ev.SessionID,
		ev.Capability,
		boolU8(ev.OK),
		ev.ElapsedMS,
		int32(ev.QuestionID),
		ev.Confidence,
		boolU8(ev.Matched),
		time.Now().UTC(),
	}
	if err := s.ch.Insert(ctx, CapabilityEventsTable, [][]any{row}); err != nil {
		s.log.Warn().Err(err).
			Str("capability", ev.Capability).
			Msg("capability event insert failed")
	}
}

func boolU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// NoopEventSink discards telemetry; used when ClickHouse is disabled
type NoopEventSink struct{}

var _ domain.EventSinkPort = NoopEventSink{}

// Record implements domain.EventSinkPort
func (NoopEventSink) Record(context.Context, domain.CapabilityEvent) {}
