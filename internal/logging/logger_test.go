package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"", INFO, false},
		{"warning", WARN, false},
		{" error ", ERROR, false},
		{"loud", INFO, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetOutput_NonTerminalDisablesColor(t *testing.T) {
	origOutput, origColor := defaultLogger.output, defaultLogger.color
	defer func() {
		defaultLogger.output = origOutput
		defaultLogger.color = origColor
	}()

	var buf bytes.Buffer
	SetOutput(&buf)

	if defaultLogger.output != &buf {
		t.Error("SetOutput did not change output")
	}
	if defaultLogger.color {
		t.Error("color should be off for a non-terminal writer")
	}
}

func TestWithField_DoesNotModifyParent(t *testing.T) {
	base := New(&bytes.Buffer{}, INFO).WithField("existing", "value")
	child := base.WithField("new", "field")

	if child.fields["existing"] != "value" {
		t.Error("existing field not preserved")
	}
	if child.fields["new"] != "field" {
		t.Error("new field not added")
	}
	if _, ok := base.fields["new"]; ok {
		t.Error("original logger was modified")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, WARN)

	logger.Debug("debug message")
	logger.Info("info message")
	if buf.Len() > 0 {
		t.Errorf("DEBUG/INFO should be filtered when level is WARN, got %q", buf.String())
	}

	logger.Warn("warn message")
	if !strings.Contains(buf.String(), "[WARN] warn message") {
		t.Errorf("WARN should not be filtered, got %q", buf.String())
	}
}

func TestLogger_FormatWithArgsAndSortedFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, DEBUG).WithFields(map[string]interface{}{
		"zeta":  1,
		"alpha": "a",
	})

	logger.Info("visitors: %d", 3)

	out := buf.String()
	if !strings.Contains(out, "visitors: 3") {
		t.Errorf("output should contain formatted message: %s", out)
	}
	if !strings.Contains(out, "| alpha=a zeta=1") {
		t.Errorf("fields should be sorted: %s", out)
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("buffer output should not carry ANSI codes: %q", out)
	}
}

func TestLogger_ColorWhenForced(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, DEBUG)
	logger.color = true

	logger.Error("boom")

	if !strings.Contains(buf.String(), ERROR.Color()+"[ERROR]") {
		t.Errorf("expected colored tag, got %q", buf.String())
	}
}

func TestLogger_ConcurrentAccess(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, DEBUG)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.WithField("n", n).Info("message %d", n)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 10 {
		t.Errorf("expected 10 log lines, got %d", len(lines))
	}
}
