// Package metrics exposes Prometheus collectors for video generation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder groups the generation collectors. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	generations   *prometheus.CounterVec
	polls         prometheus.Counter
	duration      prometheus.Histogram
	downloadBytes prometheus.Counter
}

// NewRecorder registers the collectors on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "animator",
			Name:      "generations_total",
			Help:      "Finished video generations by outcome.",
		}, []string{"outcome"}),
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "animator",
			Name:      "status_polls_total",
			Help:      "Status queries issued against remote operations.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "animator",
			Name:      "generation_duration_seconds",
			Help:      "Wall time from submission to result or failure.",
			Buckets:   []float64{10, 30, 60, 120, 180, 300, 600, 1200},
		}),
		downloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "animator",
			Name:      "download_bytes_total",
			Help:      "Bytes of generated video downloaded.",
		}),
	}
	reg.MustRegister(r.generations, r.polls, r.duration, r.downloadBytes)
	return r
}

// NewRegistry returns a registry with the Go and process collectors installed.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func (r *Recorder) ObservePoll() {
	if r == nil {
		return
	}
	r.polls.Inc()
}

func (r *Recorder) ObserveGeneration(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.generations.WithLabelValues(outcome).Inc()
	r.duration.Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveDownload(n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.downloadBytes.Add(float64(n))
}
