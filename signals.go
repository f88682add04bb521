package eventry

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for mapper and recorder lifecycle events.
var (
	SignalMapperCreated      = capitan.NewSignal("eventry.mapper.created", "Mapper instantiated")
	SignalToStoredStart      = capitan.NewSignal("eventry.mapper.to_stored.start", "Domain event -> StoredEvent beginning")
	SignalToStoredComplete   = capitan.NewSignal("eventry.mapper.to_stored.complete", "Domain event -> StoredEvent finished")
	SignalToDomainStart      = capitan.NewSignal("eventry.mapper.to_domain.start", "StoredEvent -> domain event beginning")
	SignalToDomainComplete   = capitan.NewSignal("eventry.mapper.to_domain.complete", "StoredEvent -> domain event finished")
	SignalDeprecatedCallSite = capitan.NewSignal("eventry.mapper.deprecated_call", "FromDomainEvent called (deprecated alias)")

	SignalAppendStart    = capitan.NewSignal("eventry.recorder.append.start", "InsertEvents beginning")
	SignalAppendComplete = capitan.NewSignal("eventry.recorder.append.complete", "InsertEvents finished")
	SignalSelectEvents   = capitan.NewSignal("eventry.recorder.select_events", "SelectEvents executed")
	SignalNotify         = capitan.NewSignal("eventry.recorder.notify", "SelectNotifications executed")
	SignalPublishFailed  = capitan.NewSignal("eventry.notify.publish_failed", "best-effort notification publish failed")
)

// Keys for typed event data.
var (
	KeyTopic           = capitan.NewStringKey("topic")
	KeyOriginatorID    = capitan.NewStringKey("originator_id")
	KeyEventCount      = capitan.NewIntKey("event_count")
	KeyDuration        = capitan.NewDurationKey("duration")
	KeyError           = capitan.NewErrorKey("error")
	KeyCallSite        = capitan.NewStringKey("call_site")
	KeyApplicationName = capitan.NewStringKey("application_name")
)

func emitMapperCreated(hasCompressor, hasCipher bool) {
	_ = hasCompressor
	_ = hasCipher
	capitan.Emit(context.Background(), SignalMapperCreated)
}

func emitToStoredComplete(topic string, duration time.Duration, err error) {
	ctx := context.Background()
	fields := []capitan.Field{KeyTopic.Field(topic), KeyDuration.Field(duration)}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalToStoredComplete, fields...)
		return
	}
	capitan.Emit(ctx, SignalToStoredComplete, fields...)
}

func emitToDomainComplete(topic string, duration time.Duration, err error) {
	ctx := context.Background()
	fields := []capitan.Field{KeyTopic.Field(topic), KeyDuration.Field(duration)}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalToDomainComplete, fields...)
		return
	}
	capitan.Emit(ctx, SignalToDomainComplete, fields...)
}

func emitDeprecatedCallSite(site string) {
	capitan.Emit(context.Background(), SignalDeprecatedCallSite, KeyCallSite.Field(site))
}

func emitAppendComplete(originatorID string, count int, duration time.Duration, err error) {
	ctx := context.Background()
	fields := []capitan.Field{
		KeyOriginatorID.Field(originatorID),
		KeyEventCount.Field(count),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalAppendComplete, fields...)
		return
	}
	capitan.Emit(ctx, SignalAppendComplete, fields...)
}

func emitPublishFailed(applicationName string, err error) {
	capitan.Error(context.Background(), SignalPublishFailed,
		KeyApplicationName.Field(applicationName),
		KeyError.Field(err),
	)
}

// EmitPublishFailed reports a best-effort notification publish failure.
// Exported so notifier implementations in other packages (e.g. notify.NATSPublisher)
// can emit through the same signal as the rest of the pipeline.
func EmitPublishFailed(applicationName string, err error) {
	emitPublishFailed(applicationName, err)
}
