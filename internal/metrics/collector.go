// Package metrics exports pipeline activity as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	orchestration "github.com/aashishsingla567/openclaw-assistant/core"
	"github.com/aashishsingla567/openclaw-assistant/core/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeCompleted = "completed"
	OutcomeEmpty     = "empty"
	OutcomeFailed    = "failed"
)

// Collector turns pipeline events into metrics. Register Observe on the
// stage registry to feed it.
type Collector struct {
	registry   *prometheus.Registry
	sampleRate int

	eventsTotal         *prometheus.CounterVec
	cyclesTotal         *prometheus.CounterVec
	pipelineErrorsTotal *prometheus.CounterVec
	cycleDuration       prometheus.Histogram
	capturedAudio       prometheus.Histogram
	responseLength      prometheus.Histogram

	mu          sync.Mutex
	cycleStarts map[string]time.Time
}

// NewCollector registers the pipeline metrics on a fresh registry.
// sampleRate converts captured sample counts into seconds.
func NewCollector(namespace string, sampleRate int) *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry:    registry,
		sampleRate:  sampleRate,
		cycleStarts: map[string]time.Time{},

		eventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_events_total",
				Help:      "Total number of pipeline events by kind",
			},
			[]string{"kind"},
		),
		cyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_cycles_total",
				Help:      "Total number of wake cycles by outcome",
			},
			[]string{"outcome"},
		),
		pipelineErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_errors_total",
				Help:      "Total number of pipeline errors by stage",
			},
			[]string{"stage"},
		),
		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_cycle_duration_seconds",
			Help:      "Time from wake detection to the end of the cycle",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 15, 30, 60},
		}),
		capturedAudio: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "captured_audio_seconds",
			Help:      "Length of the recorded commands in seconds",
			Buckets:   []float64{0.5, 1, 2, 3, 4, 6, 8, 12},
		}),
		responseLength: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_response_chars",
			Help:      "Length of gateway responses in characters",
			Buckets:   prometheus.ExponentialBuckets(8, 4, 6),
		}),
	}
}

// Observe records event. It never fails so it cannot abort a cycle.
func (c *Collector) Observe(_ context.Context, event events.Event, _ *orchestration.RuntimeContext) error {
	c.eventsTotal.WithLabelValues(string(event.Kind())).Inc()

	switch typed := event.(type) {
	case events.WakeDetected:
		c.mu.Lock()
		c.cycleStarts[typed.CycleID()] = typed.Timestamp()
		c.mu.Unlock()
	case events.AudioCaptured:
		if c.sampleRate > 0 {
			c.capturedAudio.Observe(float64(typed.SampleCount) / float64(c.sampleRate))
		}
	case events.TextTranscribed:
		if typed.Text == "" {
			c.finishCycle(typed, OutcomeEmpty)
		}
	case events.ActionCompleted:
		c.responseLength.Observe(float64(len([]rune(typed.Response))))
		if typed.Response == "" {
			c.finishCycle(typed, OutcomeCompleted)
		}
	case events.ResponseSpoken:
		c.finishCycle(typed, OutcomeCompleted)
	case events.PipelineError:
		c.pipelineErrorsTotal.WithLabelValues(typed.Stage).Inc()
		if typed.CycleID() != "" {
			c.finishCycle(typed, OutcomeFailed)
		}
	}
	return nil
}

func (c *Collector) finishCycle(event events.Event, outcome string) {
	c.cyclesTotal.WithLabelValues(outcome).Inc()

	c.mu.Lock()
	start, ok := c.cycleStarts[event.CycleID()]
	delete(c.cycleStarts, event.CycleID())
	c.mu.Unlock()

	if ok {
		c.cycleDuration.Observe(event.Timestamp().Sub(start).Seconds())
	}
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
