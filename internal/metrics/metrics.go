// Package metrics provides a minimal Prometheus-compatible registry for
// service instrumentation.
package metrics

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

type counterVec struct {
	mu     sync.RWMutex
	values map[string]uint64
}

func newCounterVec() *counterVec {
	return &counterVec{values: make(map[string]uint64)}
}

func (c *counterVec) inc(label string) {
	c.add(label, 1)
}

func (c *counterVec) add(label string, n uint64) {
	c.mu.Lock()
	c.values[label] += n
	c.mu.Unlock()
}

func (c *counterVec) snapshot() map[string]uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]uint64, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

type gauge struct {
	mu    sync.Mutex
	value float64
}

func (g *gauge) set(v float64) {
	g.mu.Lock()
	g.value = v
	g.mu.Unlock()
}

func (g *gauge) snapshot() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

type histogram struct {
	mu      sync.RWMutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(edges []float64) *histogram {
	sorted := append([]float64(nil), edges...)
	sort.Float64s(sorted)
	return &histogram{buckets: sorted, counts: make([]uint64, len(sorted))}
}

func (h *histogram) observe(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	h.mu.Lock()
	for i, upper := range h.buckets {
		if v <= upper {
			h.counts[i]++
		}
	}
	h.count++
	h.sum += v
	h.mu.Unlock()
}

var (
	httpRequests   = newCounterVec()
	httpLatency    = newHistogram([]float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5})
	lecturasTotal  = newCounterVec()
	analisisTotal  = newCounterVec()
	alertasTotal   = newCounterVec()
	procesoActivo  = &gauge{}
	purgedLecturas = newCounterVec()
)

// ObserveHTTPRequest records one served request under a route+status
// label and feeds the latency histogram.
func ObserveHTTPRequest(route string, status int, d time.Duration) {
	httpRequests.inc(fmt.Sprintf("%s|%d", route, status))
	httpLatency.observe(d.Seconds())
}

// IncLectura counts one accepted reading for the given sensor label.
func IncLectura(sensor string) {
	lecturasTotal.inc(strings.TrimSpace(sensor))
}

// IncAnalisis counts one analyze call under its outcome state label.
func IncAnalisis(estado string) {
	analisisTotal.inc(strings.TrimSpace(estado))
}

// IncAlerta counts one positive classification under its type label.
func IncAlerta(tipo string) {
	alertasTotal.inc(strings.TrimSpace(tipo))
}

// SetProcesoActivo publishes whether a process is currently running.
func SetProcesoActivo(active bool) {
	if active {
		procesoActivo.set(1)
		return
	}
	procesoActivo.set(0)
}

// AddLecturasPurgadas counts administratively deleted readings.
func AddLecturasPurgadas(sensor string, n int64) {
	if n <= 0 {
		return
	}
	purgedLecturas.add(strings.TrimSpace(sensor), uint64(n))
}

// Render builds the Prometheus exposition for all registered metrics.
func Render() string {
	var b strings.Builder

	writeHeader(&b, "biodigestor_http_requests_total", "counter")
	writeCounter(&b, "biodigestor_http_requests_total", "route_status", httpRequests.snapshot())
	b.WriteByte('\n')

	writeHeader(&b, "biodigestor_http_request_duration_seconds", "histogram")
	writeHistogram(&b, "biodigestor_http_request_duration_seconds", httpLatency)
	b.WriteByte('\n')

	writeHeader(&b, "biodigestor_lecturas_total", "counter")
	writeCounter(&b, "biodigestor_lecturas_total", "sensor", lecturasTotal.snapshot())
	b.WriteByte('\n')

	writeHeader(&b, "biodigestor_lecturas_purgadas_total", "counter")
	writeCounter(&b, "biodigestor_lecturas_purgadas_total", "sensor", purgedLecturas.snapshot())
	b.WriteByte('\n')

	writeHeader(&b, "biodigestor_analisis_total", "counter")
	writeCounter(&b, "biodigestor_analisis_total", "estado", analisisTotal.snapshot())
	b.WriteByte('\n')

	writeHeader(&b, "biodigestor_alertas_total", "counter")
	writeCounter(&b, "biodigestor_alertas_total", "tipo", alertasTotal.snapshot())
	b.WriteByte('\n')

	writeHeader(&b, "biodigestor_proceso_activo", "gauge")
	fmt.Fprintf(&b, "biodigestor_proceso_activo %g\n", procesoActivo.snapshot())

	return b.String()
}

// Handler serves the exposition on GET.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(Render()))
	})
}

func writeHeader(b *strings.Builder, name, typ string) {
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(typ)
	b.WriteByte('\n')
}

func writeCounter(b *strings.Builder, name, label string, values map[string]uint64) {
	if len(values) == 0 {
		fmt.Fprintf(b, "%s{} 0\n", name)
		return
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(b *strings.Builder, name string, h *histogram) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for i, upper := range h.buckets {
		fmt.Fprintf(b, "%s_bucket{le=%q} %d\n", name, formatFloat(upper), h.counts[i])
	}
	fmt.Fprintf(b, "%s_bucket{le=\"+Inf\"} %d\n", name, h.count)
	fmt.Fprintf(b, "%s_sum %g\n", name, h.sum)
	fmt.Fprintf(b, "%s_count %d\n", name, h.count)
}

func formatFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
}
