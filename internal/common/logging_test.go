package common

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// --- Logger creation ---

func TestNewLogger_ReturnsNonNil(t *testing.T) {
	logger := NewLogger("info")
	if logger == nil {
		t.Fatal("NewLogger returned nil")
	}
}

func TestNewLogger_FluentAPI(t *testing.T) {
	// Must not panic — proves the fluent chain works with arbor
	logger := NewLogger("error")
	logger.Info().Str("key", "value").Msg("test message")
	logger.Warn().Int("count", 42).Msg("warning")
	logger.Error().Err(nil).Msg("error message")
	logger.Debug().Float64("rate", 3.14).Bool("ok", true).Msg("debug")
}

func TestNewLoggerWithOutput_WritesToProvidedWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("info", &buf)
	logger.Info().Str("key", "value").Msg("hello")

	if buf.String() == "" {
		t.Error("Expected output to provided writer, got empty string")
	}
}

// --- Silent logger discards output ---

func TestNewSilentLogger_DiscardsOutput(t *testing.T) {
	logger := NewSilentLogger()
	if logger == nil {
		t.Fatal("NewSilentLogger returned nil")
	}
	// Must not panic
	logger.Info().Str("key", "value").Msg("should be discarded")
	logger.Error().Err(nil).Msg("should be discarded")
	logger.Warn().Msg("should be discarded")
}

func TestNewSilentLogger_DoesNotWriteToGlobalWriters(t *testing.T) {
	// Silent logger must not dispatch to globally-registered writers.
	// Creates a normal logger first (which registers global writers), then
	// verifies the silent logger doesn't leak through them.
	var buf bytes.Buffer
	_ = NewLoggerWithOutput("info", &buf)
	buf.Reset()

	silent := NewSilentLogger()
	silent.Info().Str("key", "value").Msg("this should NOT appear")
	silent.Error().Msg("this should NOT appear either")

	if buf.Len() > 0 {
		t.Errorf("Silent logger wrote %d bytes to global writer: %s", buf.Len(), buf.String())
	}
}

// --- No stdout writes ---

func TestNewLogger_DoesNotWriteToStdout(t *testing.T) {
	// The MCP stdio transport owns stdout. Console output MUST route to
	// stderr, never stdout, or the JSON-RPC channel is corrupted.
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	os.Stdout = w

	logger := NewLogger("info")
	logger.Info().Str("tool", "search_widgets").Msg("this must not go to stdout")
	logger.Error().Msg("neither should this")

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	buf.ReadFrom(r)
	r.Close()

	if buf.Len() > 0 {
		t.Errorf("Logger wrote %d bytes to stdout (would corrupt MCP stdio): %s", buf.Len(), buf.String())
	}
}

// --- Correlation ID ---

func TestWithCorrelationId_ReturnsNewLogger(t *testing.T) {
	logger := NewLogger("info")
	correlated := logger.WithCorrelationId("req-123")

	if correlated == nil {
		t.Fatal("WithCorrelationId returned nil")
	}
	if correlated == logger {
		t.Error("WithCorrelationId should return a new Logger instance, not the same one")
	}
}

func TestWithCorrelationId_FluentAPI(t *testing.T) {
	logger := NewLogger("error")
	correlated := logger.WithCorrelationId("req-456")
	// Must not panic
	correlated.Info().Str("tool", "search_widgets").Msg("dispatch start")
	correlated.Info().Dur("elapsed", 0).Msg("dispatch complete")
}

// --- Memory writer query ---

func TestGetMemoryLogsWithLimit_ReturnsEntries(t *testing.T) {
	logger := NewLogger("info")

	logger.Info().Str("tool", "list_pets").Msg("first message")
	logger.Info().Str("tool", "create_pets").Msg("second message")
	logger.Warn().Msg("warning message")

	// Arbor's memory writer is async — allow buffer to flush
	time.Sleep(200 * time.Millisecond)

	logs, err := logger.GetMemoryLogsWithLimit(10)
	if err != nil {
		t.Fatalf("GetMemoryLogsWithLimit failed: %v", err)
	}

	if len(logs) == 0 {
		t.Error("Expected memory writer to contain log entries, got 0")
	}
}

func TestGetMemoryLogsForCorrelation_FiltersById(t *testing.T) {
	logger := NewLogger("info")

	c1 := logger.WithCorrelationId("req-AAA")
	c2 := logger.WithCorrelationId("req-BBB")

	c1.Info().Str("tool", "search_issues").Msg("c1 message")
	c2.Info().Str("tool", "delete_issues").Msg("c2 message")
	c1.Info().Msg("c1 second message")

	time.Sleep(200 * time.Millisecond)

	logs, err := logger.GetMemoryLogsForCorrelation("req-AAA")
	if err != nil {
		t.Fatalf("GetMemoryLogsForCorrelation failed: %v", err)
	}

	if len(logs) == 0 {
		t.Error("Expected memory logs for correlation 'req-AAA', got 0")
	}

	for key, val := range logs {
		combined := key + val
		if strings.Contains(combined, "req-BBB") {
			t.Errorf("GetMemoryLogsForCorrelation returned entry from wrong correlation: %s=%s", key, val)
		}
	}
}

// --- Level filtering ---

func TestLogLevel_DebugFilteredAtInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("info", &buf)

	logger.Debug().Msg("debug message should not appear")

	if strings.Contains(buf.String(), "debug message should not appear") {
		t.Error("Debug message appeared at info level — level filtering is broken")
	}
}

func TestLogLevel_InfoVisibleAtInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("info", &buf)

	logger.Info().Msg("info message should appear")

	if !strings.Contains(buf.String(), "info message should appear") {
		t.Errorf("Info message not visible at info level — got: %s", buf.String())
	}
}

func TestLogLevel_InfoFilteredAtWarnLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("warn", &buf)

	logger.Info().Msg("info message should not appear at warn level")

	if strings.Contains(buf.String(), "info message should not appear") {
		t.Error("Info message appeared at warn level — level filtering is broken")
	}
}

// --- Concurrent access ---

func TestConcurrentLogging_NoRaceOrPanic(t *testing.T) {
	logger := NewLogger("info")

	var wg sync.WaitGroup
	goroutines := 10
	entriesPerGoroutine := 100

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			correlated := logger.WithCorrelationId(fmt.Sprintf("goroutine-%d", id))
			for j := 0; j < entriesPerGoroutine; j++ {
				correlated.Info().
					Int("goroutine", id).
					Int("entry", j).
					Msg("concurrent log entry")
			}
		}(i)
	}

	wg.Wait()

	time.Sleep(500 * time.Millisecond)

	for i := 0; i < goroutines; i++ {
		corrID := fmt.Sprintf("goroutine-%d", i)
		logs, err := logger.GetMemoryLogsForCorrelation(corrID)
		if err != nil {
			t.Errorf("GetMemoryLogsForCorrelation(%s) failed: %v", corrID, err)
			continue
		}
		if len(logs) == 0 {
			t.Errorf("Expected entries for correlation %s, got 0", corrID)
		}
	}
}

// --- Fluent API completeness ---

func TestFluentAPI_AllMethodsUsed(t *testing.T) {
	logger := NewSilentLogger()

	// Every ILogEvent method used across the codebase must compile and not panic.
	logger.Info().Str("key", "val").Msg("str")
	logger.Info().Int("key", 1).Msg("int")
	logger.Info().Int64("key", int64(1)).Msg("int64")
	logger.Info().Float64("key", 1.0).Msg("float64")
	logger.Info().Bool("key", true).Msg("bool")
	logger.Info().Err(nil).Msg("err")
	logger.Info().Dur("key", 0).Msg("dur")
	logger.Info().Msgf("formatted %s %d", "string", 42)
	logger.Info().Strs("key", []string{"a", "b"}).Msg("strs")

	logger.Info().Str("a", "1").Str("b", "2").Int("c", 3).Msg("chained")
	logger.Error().Err(nil).Str("tool", "delete_widgets").Msg("error with context")

	logger.Debug().Msg("debug")
	logger.Info().Msg("info")
	logger.Warn().Msg("warn")
	logger.Error().Msg("error")
}
