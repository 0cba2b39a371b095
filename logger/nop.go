package logger

// NopLogger discards everything. Used in tests.
type NopLogger struct{}

func (NopLogger) Log(string)             {}
func (NopLogger) Logf(string, ...any)    {}
func (NopLogger) Debug(string)           {}
func (NopLogger) Debugf(string, ...any)  {}
func (NopLogger) Warn(string)            {}
func (NopLogger) Warnf(string, ...any)   {}
func (NopLogger) Error(string)           {}
func (NopLogger) Errorf(string, ...any)  {}
func (NopLogger) Fatal(string)           {}
func (NopLogger) Fatalf(string, ...any)  {}
