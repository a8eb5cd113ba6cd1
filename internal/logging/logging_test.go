package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
}

func TestOpenWritesBothStreams(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	run, err := Open(Options{Dir: dir, Now: fixedNow})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if want := filepath.Join(dir, "janitor_2024-03-09_14-05-07.log"); run.LogPath != want {
		t.Errorf("LogPath = %s, want %s", run.LogPath, want)
	}
	if want := filepath.Join(dir, "entity_ids_2024-03-09_14-05-07.log"); run.AuditPath != want {
		t.Errorf("AuditPath = %s, want %s", run.AuditPath, want)
	}

	run.Logger.Info("Channel #general has been inactive for 200.00 days and will be archived.")
	run.Audit.Info("enumerated", "channel_id", "C123")
	if err := run.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	logData, err := os.ReadFile(run.LogPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(logData), "inactive for 200.00 days") {
		t.Errorf("run log missing message:\n%s", logData)
	}
	if !strings.Contains(string(logData), "run_id="+run.ID) {
		t.Errorf("run log missing run id:\n%s", logData)
	}
	if !strings.Contains(string(logData), "time=") {
		t.Errorf("run log missing timestamp:\n%s", logData)
	}
	if strings.Contains(string(logData), "C123") {
		t.Error("audit entry leaked into the run log")
	}

	auditData, err := os.ReadFile(run.AuditPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(auditData), "channel_id=C123") {
		t.Errorf("audit log missing id:\n%s", auditData)
	}
}

func TestVerboseMirrorsToStderr(t *testing.T) {
	var stderr bytes.Buffer
	run, err := Open(Options{Dir: t.TempDir(), Verbose: true, Stderr: &stderr, Now: fixedNow})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer run.Close()

	run.Logger.With("team", "E1").Warn("multiple matches")
	if !strings.Contains(stderr.String(), "multiple matches") || !strings.Contains(stderr.String(), "team=E1") {
		t.Errorf("expected mirrored record, got %q", stderr.String())
	}
}

func TestQuietByDefault(t *testing.T) {
	var stderr bytes.Buffer
	run, err := Open(Options{Dir: t.TempDir(), Stderr: &stderr, Now: fixedNow})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer run.Close()

	run.Logger.Info("hidden")
	if stderr.Len() != 0 {
		t.Errorf("expected no stderr output, got %q", stderr.String())
	}
}

func TestOpenRequiresDir(t *testing.T) {
	if _, err := Open(Options{}); err == nil {
		t.Error("expected error without a directory")
	}
}

func TestDiscard(t *testing.T) {
	run := Discard()
	run.Logger.Info("nothing")
	run.Audit.Info("nothing")
	if err := run.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if run.ID == "" {
		t.Error("expected a run id")
	}
}
