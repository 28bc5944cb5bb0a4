package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		enabled zapcore.Level
	}{
		{name: "console info", cfg: Config{Level: "info", Format: FormatConsole}, enabled: zapcore.InfoLevel},
		{name: "json warn", cfg: Config{Level: "warn", Format: FormatJSON}, enabled: zapcore.WarnLevel},
		{name: "upper case level", cfg: Config{Level: "DEBUG"}, enabled: zapcore.DebugLevel},
		{name: "invalid level", cfg: Config{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLogger() failed: %v", err)
			}
			if !logger.Core().Enabled(tt.enabled) {
				t.Errorf("Expected %s to be enabled", tt.enabled)
			}
			if tt.enabled > zapcore.DebugLevel && logger.Core().Enabled(tt.enabled-1) {
				t.Errorf("Expected %s to be disabled", tt.enabled-1)
			}
		})
	}
}

func TestNewProductionLogger_EmptyLevel(t *testing.T) {
	logger, err := NewProductionLogger("")
	if err != nil {
		t.Fatalf("NewProductionLogger() failed: %v", err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected debug to be disabled by default")
	}
}

func TestNewDevelopmentLogger(t *testing.T) {
	logger, err := NewDevelopmentLogger()
	if err != nil {
		t.Fatalf("NewDevelopmentLogger() failed: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected debug to be enabled")
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"json":    FormatJSON,
		" JSON ":  FormatJSON,
		"console": FormatConsole,
		"":        FormatConsole,
		"text":    FormatConsole,
	}
	for in, want := range cases {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMustNewLogger_Panic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected MustNewLogger to panic on invalid level")
		}
	}()
	MustNewLogger(Config{Level: "nope"})
}
