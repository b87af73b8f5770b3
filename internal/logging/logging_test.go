package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       bool
		enabled       zapcore.Level
	}{
		{level: "info", format: "json", enabled: zapcore.InfoLevel},
		{level: "debug", format: "console", enabled: zapcore.DebugLevel},
		{level: "", format: "", enabled: zapcore.InfoLevel},
		{level: "loud", format: "json", wantErr: true},
		{level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		logger, err := New(tt.level, tt.format)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("New(%q, %q): expected an error", tt.level, tt.format)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%q, %q): unexpected error: %v", tt.level, tt.format, err)
		}
		if !logger.Core().Enabled(tt.enabled) {
			t.Fatalf("New(%q, %q): expected %s to be enabled", tt.level, tt.format, tt.enabled)
		}
	}
}
