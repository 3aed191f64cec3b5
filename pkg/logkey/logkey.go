package logkey

// Shared slog attribute keys so log lines stay grep-able across packages.
const (
	TraceID = "Trace ID"
	ERROR   = "Error"
)
