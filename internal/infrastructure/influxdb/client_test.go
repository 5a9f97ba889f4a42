package influxdb_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/agentshell/internal/infrastructure/config"
	"github.com/nerrad567/agentshell/internal/infrastructure/influxdb"
)

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "agentshell-dev-token",
		Org:           "agentshell",
		Bucket:        "lifecycle",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

// fakeInflux answers /ping and records write bodies.
type fakeInflux struct {
	mu     sync.Mutex
	writes []string
	status int
}

func newFakeInflux(t *testing.T) (*fakeInflux, *httptest.Server) {
	t.Helper()
	f := &fakeInflux{status: http.StatusNoContent}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/ping"):
			w.WriteHeader(http.StatusNoContent)
		case strings.HasSuffix(r.URL.Path, "/write"):
			body, _ := io.ReadAll(r.Body) //nolint:errcheck // test server
			f.mu.Lock()
			f.writes = append(f.writes, string(body))
			status := f.status
			f.mu.Unlock()
			w.WriteHeader(status)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeInflux) body() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var b bytes.Buffer
	for _, w := range f.writes {
		b.WriteString(w)
	}
	return b.String()
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:8086")
	cfg.Enabled = false

	if _, err := influxdb.Connect(cfg); !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	if _, err := influxdb.Connect(testConfig("http://127.0.0.1:1")); !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestWriteLifecycle_FakeServer(t *testing.T) {
	fake, srv := newFakeInflux(t)

	client, err := influxdb.Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // test cleanup

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	client.WriteLifecycle(influxdb.LifecyclePoint{
		Kind: "spawned",
		PID:  31337,
		Time: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	client.Flush()

	// The batch is sent by a background writer; wait for it to land.
	var body string
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if body = fake.body(); body != "" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !strings.Contains(body, "sidecar_lifecycle,kind=spawned") {
		t.Errorf("write body %q missing measurement and kind tag", body)
	}
	if !strings.Contains(body, "pid=31337i") {
		t.Errorf("write body %q missing pid field", body)
	}
}

func TestWriteLifecycle_ErrorCallback(t *testing.T) {
	fake, srv := newFakeInflux(t)
	fake.status = http.StatusBadRequest

	client, err := influxdb.Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // test cleanup

	got := make(chan error, 1)
	client.SetOnError(func(err error) {
		select {
		case got <- err:
		default:
		}
	})

	client.WriteLifecycle(influxdb.LifecyclePoint{Kind: "killed"})
	client.Flush()

	select {
	case err := <-got:
		if err == nil {
			t.Error("callback received nil error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("write error not reported")
	}
}

func TestClose(t *testing.T) {
	_, srv := newFakeInflux(t)
	client, err := influxdb.Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() after Close error = %v, want ErrNotConnected", err)
	}
	// Second close is a no-op.
	if err := client.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

// TestIntegration_RealServer runs against a local InfluxDB when one is
// reachable at INFLUXDB_URL (or 127.0.0.1:8086).
func TestIntegration_RealServer(t *testing.T) {
	url := os.Getenv("INFLUXDB_URL")
	if url == "" {
		url = "http://127.0.0.1:8086"
	}
	cfg := testConfig(url)
	if token := os.Getenv("INFLUXDB_TOKEN"); token != "" {
		cfg.Token = token
	}

	client, err := influxdb.Connect(cfg)
	if err != nil {
		if os.Getenv("RUN_INTEGRATION") != "" {
			t.Fatalf("Connect() error = %v", err)
		}
		t.Skip("InfluxDB not available, skipping integration test")
	}
	defer client.Close() //nolint:errcheck // test cleanup

	var writeErr error
	var mu sync.Mutex
	client.SetOnError(func(err error) {
		mu.Lock()
		writeErr = err
		mu.Unlock()
	})

	client.WriteLifecycle(influxdb.LifecyclePoint{Kind: "spawned", PID: 1, Product: "integration-test"})
	client.Flush()
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if writeErr != nil {
		t.Errorf("async write error = %v", writeErr)
	}
}
