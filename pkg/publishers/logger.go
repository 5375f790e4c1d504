package publishers

// Logger defines the logging surface publishers rely on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}

// eventFields is the log payload shared by the sinks.
func eventFields(publisherID string, evt Event) map[string]any {
	return map[string]any{
		"publisher_id": publisherID,
		"query_id":     evt.QueryID,
		"item_id":      evt.ItemID,
	}
}

// messageAttributes are attached to every queued message so consumers can
// route without decoding the body.
func messageAttributes(evt Event) map[string]string {
	attrs := make(map[string]string, 3)
	if evt.QueryID != "" {
		attrs["query_id"] = evt.QueryID
	}
	if evt.Kind != "" {
		attrs["kind"] = string(evt.Kind)
	}
	if evt.BreakingNews {
		attrs["breaking_news"] = "true"
	}
	return attrs
}
