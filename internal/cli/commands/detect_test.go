package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunDetect_PostgresLog(t *testing.T) {
	logPath := writeSampleLog(t)

	cmd := NewDetectCommand()
	cmd.SetArgs([]string{logPath})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("detect failed: %v", err)
	}
}

func TestRunDetect_MissingFile(t *testing.T) {
	cmd := NewDetectCommand()
	cmd.SetArgs([]string{"/no/such/file.log"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("detect should fail for missing file")
	}
}

func TestRunDetect_WriteConfig(t *testing.T) {
	logPath := writeSampleLog(t)
	configPath := filepath.Join(t.TempDir(), "starter.yaml")

	cmd := NewDetectCommand()
	cmd.SetArgs([]string{"--write-config", configPath, logPath})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("detect failed: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("starter config not written: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "log_sources:") {
		t.Error("starter config missing log_sources")
	}
	if !strings.Contains(content, "slow_query_threshold_ms") {
		t.Error("starter config missing analysis section")
	}
}

func TestRunDetect_WriteConfigRefusesOverwrite(t *testing.T) {
	logPath := writeSampleLog(t)
	configPath := filepath.Join(t.TempDir(), "existing.yaml")
	if err := os.WriteFile(configPath, []byte("keep me\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := NewDetectCommand()
	cmd.SetArgs([]string{"--write-config", configPath, logPath})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("detect should refuse to overwrite an existing config")
	}

	data, _ := os.ReadFile(configPath)
	if string(data) != "keep me\n" {
		t.Error("existing config was modified")
	}
}
