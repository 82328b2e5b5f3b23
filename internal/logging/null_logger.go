package logging

// NullLogger drops every message. Handy for tests that do not assert on output.
type NullLogger struct{}

func NewNullLogger() NullLogger { return NullLogger{} }

func (NullLogger) Verbose(string, ...interface{}) {}
func (NullLogger) Info(string, ...interface{})    {}
func (NullLogger) Error(string, ...interface{})   {}
