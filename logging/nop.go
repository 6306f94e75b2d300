package logging

// NopLogger discards everything. Used by tests and library callers that do not log.
type NopLogger struct{}

var _ Logger = (*NopLogger)(nil)

// NewNop returns a logger that does nothing.
func NewNop() *NopLogger {
	return &NopLogger{}
}

func (l *NopLogger) Debug(_ string, _ ...any) {}
func (l *NopLogger) Info(_ string, _ ...any)  {}
func (l *NopLogger) Warn(_ string, _ ...any)  {}
func (l *NopLogger) Error(_ string, _ ...any) {}
func (l *NopLogger) Fatal(_ string, _ ...any) {}
