package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetupLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithWriter("development", &buf)
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("development level = %v, want debug", logger.GetLevel())
	}
	logger.Debug().Msg("repair step")
	if !strings.Contains(buf.String(), "repair step") {
		t.Fatalf("debug message not written: %q", buf.String())
	}

	buf.Reset()
	logger = SetupWithWriter("production", &buf)
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("production level = %v, want info", logger.GetLevel())
	}
	logger.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug message leaked at info level: %q", buf.String())
	}
}
