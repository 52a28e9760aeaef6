package logging

import "github.com/vvka-141/sparkify-dwh/pkg/dwh"

var (
	_ dwh.Logger = (*NullLogger)(nil)
	_ dwh.Logger = (*ConsoleLogger)(nil)
)

// NullLogger discards statement echoes, connection notices and errors.
// Integration tests wire it into the pipeline so only assertions produce output.
type NullLogger struct{}

// NewNullLogger returns a logger that writes nothing.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (*NullLogger) Verbose(string, ...interface{}) {}
func (*NullLogger) Info(string, ...interface{})    {}
func (*NullLogger) Error(string, ...interface{})   {}
