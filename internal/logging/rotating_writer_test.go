package logging

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
)

func TestRotatingFileWriterAppends(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(logFile, []byte("existing\n"), 0600); err != nil {
		t.Fatal(err)
	}

	w, err := NewRotatingFileWriter(logFile, 1024, 3)
	if err != nil {
		t.Fatalf("NewRotatingFileWriter failed: %v", err)
	}
	if w.size != int64(len("existing\n")) {
		t.Errorf("size = %d, want %d", w.size, len("existing\n"))
	}

	if _, err := w.Write([]byte("new\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	_ = w.Close()

	content, _ := os.ReadFile(logFile)
	if string(content) != "existing\nnew\n" {
		t.Errorf("content = %q", content)
	}
}

func TestRotatingFileWriterRotates(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")

	w, err := NewRotatingFileWriter(logFile, 20, 2)
	if err != nil {
		t.Fatalf("NewRotatingFileWriter failed: %v", err)
	}
	defer w.Close()

	records := []string{"first record 0001\n", "second record 002\n", "third record 0003\n", "fourth record 004\n"}
	for _, r := range records {
		if _, err := w.Write([]byte(r)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	expect := map[string]string{
		logFile:        records[3],
		logFile + ".1": records[2],
		logFile + ".2": records[1],
	}
	for name, want := range expect {
		got, err := os.ReadFile(name)
		if err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}

	if _, err := os.Stat(logFile + ".3"); !os.IsNotExist(err) {
		t.Errorf("expected no third backup, stat err = %v", err)
	}
}

func TestRotatingFileWriterOversizedRecord(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")
	w, err := NewRotatingFileWriter(logFile, 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	big := strings.Repeat("x", 50)
	if _, err := w.Write([]byte(big)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := os.Stat(logFile + ".1"); !os.IsNotExist(err) {
		t.Errorf("empty file should not rotate before first write")
	}
	got, _ := os.ReadFile(logFile)
	if string(got) != big {
		t.Errorf("oversized record was split: %q", got)
	}
}

func TestRotatingFileWriterNoBackups(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")
	w, err := NewRotatingFileWriter(logFile, 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	_, _ = w.Write([]byte("old\n"))
	if err := w.Rotate(); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	_, _ = w.Write([]byte("new\n"))

	got, _ := os.ReadFile(logFile)
	if string(got) != "new\n" {
		t.Errorf("content after truncating rotation = %q", got)
	}
	if _, err := os.Stat(logFile + ".1"); !os.IsNotExist(err) {
		t.Errorf("no backup expected with maxBackups=0")
	}
}

func TestRotatingFileWriterClosed(t *testing.T) {
	w, err := NewRotatingFileWriter(filepath.Join(t.TempDir(), "app.log"), 100, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if _, err := w.Write([]byte("x")); err == nil {
		t.Error("expected error writing to closed writer")
	}
}

func TestRotateOn(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")
	w, err := NewRotatingFileWriter(logFile, 1024, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	_, _ = w.Write([]byte("before\n"))

	ctx, cancel := context.WithCancel(context.Background())
	trigger := make(chan os.Signal)
	done := make(chan struct{})
	go func() {
		RotateOn(ctx, w, trigger)
		close(done)
	}()

	trigger <- syscall.SIGHUP
	cancel()
	<-done

	got, err := os.ReadFile(logFile + ".1")
	if err != nil || string(got) != "before\n" {
		t.Errorf("backup after signal = %q, %v", got, err)
	}

	// closers of console-only loggers are ignored
	finished := make(chan struct{})
	go func() {
		RotateOn(context.Background(), nopCloser{}, trigger)
		close(finished)
	}()
	<-finished
}
