package recorder

// NoopRecorder discards everything. Used when persistence is disabled.
type NoopRecorder struct{}

func (NoopRecorder) Record(*Record) error { return nil }
func (NoopRecorder) Close() error         { return nil }
