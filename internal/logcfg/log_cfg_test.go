package logcfg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestRunLoggerConfig_BadLevel(t *testing.T) {
	if err := RunLoggerConfig("loud", filepath.Join(t.TempDir(), "bot.log")); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestRunLoggerConfig(t *testing.T) {
	defer func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetReportCaller(false)
		logrus.SetLevel(logrus.InfoLevel)
	}()

	if err := RunLoggerConfig("debug", filepath.Join(t.TempDir(), "bot.log")); err != nil {
		t.Fatalf("RunLoggerConfig failed: %v", err)
	}
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Errorf("expected debug level, got %s", logrus.GetLevel())
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chats.log")
	logger := NewFileLogger(path)
	logger.WithField("chat_id", int64(-100)).Info("добавил бота в группу")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if !strings.Contains(string(data), "добавил бота в группу") || !strings.Contains(string(data), "chat_id=-100") {
		t.Errorf("unexpected log content %q", data)
	}
}

func TestNewRotatingWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_posts", "data.txt")
	w := NewRotatingWriter(path)
	if _, err := w.Write([]byte("-----\n1\nтекст\n-----\n\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected journal file: %v", err)
	}
	if string(data) != "-----\n1\nтекст\n-----\n\n" {
		t.Errorf("unexpected journal content %q", data)
	}
}
