package metrics

import (
	"strings"
	"testing"
	"time"
)

func TestRenderExposesRegisteredSeries(t *testing.T) {
	ObserveHTTPRequest("GET /analizar", 200, 12*time.Millisecond)
	IncLectura("1")
	IncAnalisis("Operación Normal")
	IncAlerta("Temperatura Alta")
	SetProcesoActivo(true)
	AddLecturasPurgadas("2", 3)

	out := Render()
	for _, want := range []string{
		`biodigestor_http_requests_total{route_status="GET /analizar|200"} 1`,
		`biodigestor_lecturas_total{sensor="1"} 1`,
		`biodigestor_analisis_total{estado="Operación Normal"} 1`,
		`biodigestor_alertas_total{tipo="Temperatura Alta"} 1`,
		`biodigestor_lecturas_purgadas_total{sensor="2"} 3`,
		"biodigestor_proceso_activo 1",
		"# TYPE biodigestor_http_request_duration_seconds histogram",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("exposition missing %q:\n%s", want, out)
		}
	}
}

func TestHistogramBucketsAreCumulativeUpToInf(t *testing.T) {
	h := newHistogram([]float64{1, 2})
	h.observe(0.5)
	h.observe(1.5)
	h.observe(10)
	if h.count != 3 {
		t.Fatalf("count = %d, want 3", h.count)
	}
	if h.counts[0] != 1 || h.counts[1] != 2 {
		t.Fatalf("bucket counts = %v", h.counts)
	}
}
