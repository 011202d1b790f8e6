package commands

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/vrajat/pg-logstats/pkg/config"
	"github.com/vrajat/pg-logstats/pkg/output"
)

const sampleLog = `2024-08-14 10:30:15.123 UTC [111] alice@shop psql: LOG:  connection received: host=127.0.0.1
2024-08-14 10:30:15.200 UTC [111] alice@shop psql: LOG:  statement: SELECT id, name
	FROM users
	WHERE id = 42;
2024-08-14 10:30:15.210 UTC [111] alice@shop psql: LOG:  duration: 7.141 ms
2024-08-14 10:31:00.000 UTC [112] bob@shop app: ERROR:  relation "missing" does not exist
2024-08-14 10:31:00.000 UTC [112] bob@shop app: STATEMENT:  SELECT * FROM missing
`

func writeSampleLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pg.log")
	if err := os.WriteFile(path, []byte(sampleLog), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func resetExitCode(t *testing.T) {
	t.Helper()
	prev := ExitCode
	ExitCode = 0
	t.Cleanup(func() { ExitCode = prev })
}

func TestShouldFireWebhook(t *testing.T) {
	tests := []struct {
		name      string
		trigger   config.WebhookTrigger
		hasErrors bool
		want      bool
	}{
		{"on_errors with errors", config.WebhookTriggerOnErrors, true, true},
		{"on_errors without errors", config.WebhookTriggerOnErrors, false, false},
		{"always with errors", config.WebhookTriggerAlways, true, true},
		{"always without errors", config.WebhookTriggerAlways, false, true},
		{"never with errors", config.WebhookTriggerNever, true, false},
		{"never without errors", config.WebhookTriggerNever, false, false},
		{"empty trigger with errors", "", true, true},
		{"empty trigger without errors", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shouldFireWebhook(tt.trigger, tt.hasErrors)
			if got != tt.want {
				t.Errorf("shouldFireWebhook(%q, %v) = %v, want %v",
					tt.trigger, tt.hasErrors, got, tt.want)
			}
		})
	}
}

func TestCollectWebhooks(t *testing.T) {
	t.Run("config only", func(t *testing.T) {
		cfg := &config.Config{
			Webhooks: []config.WebhookConfig{
				{Name: "slack", URL: "https://slack.example.com/hook"},
				{Name: "pagerduty", URL: "https://pd.example.com/hook"},
			},
		}
		opts := &AnalyzeOptions{}

		webhooks := collectWebhooks(cfg, opts)
		if len(webhooks) != 2 {
			t.Errorf("got %d webhooks, want 2", len(webhooks))
		}
	})

	t.Run("cli only", func(t *testing.T) {
		cfg := &config.Config{}
		opts := &AnalyzeOptions{
			WebhookURL:     "https://cli.example.com/hook",
			WebhookToken:   "secret",
			WebhookTrigger: "always",
		}

		webhooks := collectWebhooks(cfg, opts)
		if len(webhooks) != 1 {
			t.Fatalf("got %d webhooks, want 1", len(webhooks))
		}
		if webhooks[0].Name != "cli" {
			t.Errorf("got name %q, want cli", webhooks[0].Name)
		}
		if webhooks[0].Token != "secret" {
			t.Errorf("got token %q, want secret", webhooks[0].Token)
		}
		if webhooks[0].Trigger != config.WebhookTriggerAlways {
			t.Errorf("got trigger %q, want always", webhooks[0].Trigger)
		}
	})

	t.Run("config and cli", func(t *testing.T) {
		cfg := &config.Config{
			Webhooks: []config.WebhookConfig{
				{Name: "slack", URL: "https://slack.example.com/hook"},
			},
		}
		opts := &AnalyzeOptions{WebhookURL: "https://cli.example.com/hook"}

		webhooks := collectWebhooks(cfg, opts)
		if len(webhooks) != 2 {
			t.Errorf("got %d webhooks, want 2", len(webhooks))
		}
	})
}

func TestRunAnalyze_JSONReport(t *testing.T) {
	resetExitCode(t)
	logPath := writeSampleLog(t)
	outPath := filepath.Join(t.TempDir(), "report.json")

	cmd := NewAnalyzeCommand()
	cmd.SetArgs([]string{"--output", "json", "--outfile", outPath, "--quiet", logPath})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	var report output.Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}

	if report.Metadata.LinesRead != 7 {
		t.Errorf("LinesRead = %d, want 7", report.Metadata.LinesRead)
	}
	if report.Summary.TotalQueries != 2 {
		t.Errorf("TotalQueries = %d, want 2", report.Summary.TotalQueries)
	}
	if report.Summary.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", report.Summary.ErrorCount)
	}
	if report.Summary.ConnectionCount != 1 {
		t.Errorf("ConnectionCount = %d, want 1", report.Summary.ConnectionCount)
	}
	if report.Queries == nil {
		t.Fatal("query analysis missing")
	}
	if len(report.Queries.SlowestQueries) != 1 {
		t.Fatalf("SlowestQueries = %+v, want 1 entry", report.Queries.SlowestQueries)
	}
	if report.Queries.SlowestQueries[0].DurationMS != 7.141 {
		t.Errorf("slowest duration = %v, want 7.141", report.Queries.SlowestQueries[0].DurationMS)
	}

	// Logs contained an ERROR entry.
	if ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode)
	}
}

func TestRunAnalyze_NoFiles(t *testing.T) {
	resetExitCode(t)

	cmd := NewAnalyzeCommand()
	cmd.SetArgs([]string{"--quiet"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("analyze should fail with no log files")
	}
}

func TestRunAnalyze_WebhookFires(t *testing.T) {
	resetExitCode(t)
	logPath := writeSampleLog(t)
	outPath := filepath.Join(t.TempDir(), "report.json")

	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cmd := NewAnalyzeCommand()
	cmd.SetArgs([]string{
		"--output", "json", "--outfile", outPath, "--quiet",
		"--webhook-url", server.URL,
		"--webhook-trigger", "always",
		logPath,
	})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if len(received) == 0 {
		t.Fatal("webhook did not receive a payload")
	}
	var report output.Report
	if err := json.Unmarshal(received, &report); err != nil {
		t.Fatalf("webhook payload is not a report: %v", err)
	}
	if report.Summary.TotalQueries != 2 {
		t.Errorf("webhook TotalQueries = %d, want 2", report.Summary.TotalQueries)
	}
}

func TestRunAnalyze_SampleSize(t *testing.T) {
	resetExitCode(t)
	logPath := writeSampleLog(t)
	outPath := filepath.Join(t.TempDir(), "report.json")

	cmd := NewAnalyzeCommand()
	cmd.SetArgs([]string{
		"--output", "json", "--outfile", outPath, "--quiet",
		"--sample-size", "1",
		logPath,
	})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	var report output.Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatal(err)
	}
	if report.Metadata.LinesRead != 1 {
		t.Errorf("LinesRead = %d, want 1 (sample cap)", report.Metadata.LinesRead)
	}
}

func TestRunAnalyze_LogDir(t *testing.T) {
	resetExitCode(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "postgresql.log"), []byte(sampleLog), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignored.dat"), []byte("x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(t.TempDir(), "report.json")

	cmd := NewAnalyzeCommand()
	cmd.SetArgs([]string{"--output", "json", "--outfile", outPath, "--quiet", "--log-dir", dir})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	var report output.Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatal(err)
	}
	if len(report.Metadata.Sources) != 1 {
		t.Errorf("Sources = %v, want only the .log file", report.Metadata.Sources)
	}
}
