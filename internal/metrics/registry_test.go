package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordersFeedPrometheusRegistry(t *testing.T) {
	ResetForTests()

	RecordProviderCall("llama", "generate_outline", "success", "none", 25*time.Millisecond)
	RecordProviderCall("llama", "generate_outline", "error", "timeout", 10*time.Millisecond)
	RecordConnectorCall("google_docs", "import", "error", "connector_forbidden", 5*time.Millisecond)
	RecordStage("assemble", "success", time.Millisecond)
	RecordTemplateValidation("warning")
	RecordTemplateValidation("warning")

	r := current()
	if got := testutil.ToFloat64(r.providerRequests.WithLabelValues("llama", "generate_outline", "error", "timeout")); got != 1 {
		t.Fatalf("expected one failed provider call, got %v", got)
	}
	if got := testutil.ToFloat64(r.validations.WithLabelValues("warning")); got != 2 {
		t.Fatalf("expected two warning validations, got %v", got)
	}
	if got := testutil.CollectAndCount(r.stageLatency); got != 1 {
		t.Fatalf("expected one stage series, got %d", got)
	}
}

func TestHandlerExposesNotareSeries(t *testing.T) {
	ResetForTests()
	RecordConnectorCall("web", "normalize", "success", "none", 20*time.Millisecond)
	RecordHTTPRequest("POST", "/api/pptx", "200", time.Second)

	recorder := httptest.NewRecorder()
	Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(recorder.Body)
	output := string(body)

	expectedSubstrings := []string{
		"# HELP notare_connector_requests_total",
		`notare_connector_requests_total{connector="web",error_code="none",operation="normalize",status="success"} 1`,
		"# TYPE notare_connector_request_duration_seconds histogram",
		`notare_http_requests_total{method="POST",route="/api/pptx",status="200"} 1`,
	}
	for _, substring := range expectedSubstrings {
		if !strings.Contains(output, substring) {
			t.Fatalf("expected metrics output to contain %q\noutput:\n%s", substring, output)
		}
	}
}
