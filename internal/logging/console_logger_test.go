package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestConsoleLogger_Verbose_WhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, true)
	logger.Verbose("test message: %s", "value")

	expected := "[VERBOSE] test message: value\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}
}

func TestConsoleLogger_Verbose_WhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)
	logger.Verbose("test message: %s", "value")

	if buf.String() != "" {
		t.Errorf("Expected no output, got %q", buf.String())
	}
}

func TestConsoleLogger_Info(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)
	logger.Info("info message: %s", "value")

	expected := "info message: value\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}
}

func TestConsoleLogger_InfoWithoutArgsKeepsPercent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)
	logger.Info("SELECT 100%")

	if buf.String() != "SELECT 100%\n" {
		t.Errorf("Expected literal message, got %q", buf.String())
	}
}

func TestConsoleLogger_SectionHeader(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)
	logger.Info("\nExecuting DROP:")

	if buf.String() != "\nExecuting DROP:\n" {
		t.Errorf("Expected plain header without colour, got %q", buf.String())
	}
}

func TestConsoleLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)
	logger.Error("error message: %s", "value")

	expected := "[ERROR] error message: value\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}
}

func TestConsoleLogger_ErrorsGoToErrorStream(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewConsoleLoggerStreams(&out, &errOut, true)

	logger.Info("\nLoading STAGING DATA:")
	logger.Verbose("copied %d rows", 3)
	logger.Error("push failed")

	if out.String() != "\nLoading STAGING DATA:\n[VERBOSE] copied 3 rows\n" {
		t.Errorf("unexpected progress output %q", out.String())
	}
	if errOut.String() != "[ERROR] push failed\n" {
		t.Errorf("unexpected error output %q", errOut.String())
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func TestConsoleLogger_ConcurrentSafety(t *testing.T) {
	var out lockedBuffer
	logger := NewConsoleLoggerTo(&out, true)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.Info("message %d", id)
			logger.Verbose("verbose %d", id)
			logger.Error("error %d", id)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(out.buf.String()), "\n")
	if len(lines) != 30 {
		t.Errorf("Expected 30 lines, got %d", len(lines))
	}
	for i, line := range lines {
		if !strings.Contains(line, "message") && !strings.Contains(line, "verbose") && !strings.Contains(line, "error") {
			t.Errorf("Line %d appears corrupted: %q", i, line)
		}
	}
}

func TestColorEnabled(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("CI", "")

	if ColorEnabled(&bytes.Buffer{}) {
		t.Error("ColorEnabled() = true for a buffer, want false")
	}

	t.Setenv("NO_COLOR", "1")
	if ColorEnabled(nil) {
		t.Error("ColorEnabled() = true with NO_COLOR set, want false")
	}
}

func TestNullLogger_ConcurrentSafety(t *testing.T) {
	logger := NewNullLogger()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.Info("message %d", id)
			logger.Verbose("verbose %d", id)
			logger.Error("error %d", id)
		}(i)
	}
	wg.Wait()
}
