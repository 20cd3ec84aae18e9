package worker

import (
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/service"
)

// StartEventSubscribers registers the event log and, when configured, the
// Redis stream sink on the dispatcher.
func StartEventSubscribers(dispatcher events.Dispatcher, eventLog *service.EventLogService, sink *events.RedisStreamSink) {
	if eventLog != nil {
		eventLog.RegisterHandlers()
	}
	if sink != nil && dispatcher != nil {
		sink.Register(dispatcher)
	}
}
