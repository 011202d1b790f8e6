package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vrajat/pg-logstats/pkg/output"
)

func testReport() *output.Report {
	return output.NewReport("test", []string{"pg.log"}, 10, 5, nil, nil)
}

func TestClient_Send(t *testing.T) {
	var gotBody []byte
	var gotHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient()
	resp := client.Send(context.Background(), testReport(), SendOptions{
		URL:   server.URL,
		Token: "tok123",
	})

	if !resp.Success() {
		t.Fatalf("Send() failed: %v (status %d)", resp.Error, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if gotHeaders.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", gotHeaders.Get("Content-Type"))
	}
	if gotHeaders.Get("Authorization") != "Bearer tok123" {
		t.Errorf("Authorization = %q", gotHeaders.Get("Authorization"))
	}
	if gotHeaders.Get("User-Agent") != "pg-logstats-webhook" {
		t.Errorf("User-Agent = %q", gotHeaders.Get("User-Agent"))
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if _, ok := decoded["metadata"]; !ok {
		t.Error("payload missing metadata")
	}
}

func TestClient_Send_NoToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient()
	resp := client.Send(context.Background(), testReport(), SendOptions{URL: server.URL})

	if !resp.Success() {
		t.Errorf("Send() failed: %v", resp.Error)
	}
}

func TestClient_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient()
	resp := client.Send(context.Background(), testReport(), SendOptions{URL: server.URL})

	if resp.Success() {
		t.Error("Send() should not succeed on 500")
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", resp.StatusCode)
	}
	if resp.Error == nil {
		t.Error("Error should be set for 5xx status")
	}
}

func TestClient_Send_ConnectionRefused(t *testing.T) {
	client := NewClient()
	resp := client.Send(context.Background(), testReport(), SendOptions{
		URL:     "http://127.0.0.1:1/hook",
		Timeout: time.Second,
	})

	if resp.Success() {
		t.Error("Send() should fail when nothing is listening")
	}
	if resp.Error == nil {
		t.Error("Error should be set")
	}
}

func TestClient_Send_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient()
	resp := client.Send(context.Background(), testReport(), SendOptions{
		URL:     server.URL,
		Timeout: 50 * time.Millisecond,
	})

	if resp.Success() {
		t.Error("Send() should time out")
	}
}
