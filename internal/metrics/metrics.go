package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Message outcomes reported by the moderation pipeline
const (
	OutcomeIneligible = "ineligible"
	OutcomeNoImage    = "no_image"
	OutcomeTrusted    = "trusted"
	OutcomeClean      = "clean"
	OutcomeScam       = "scam"
	OutcomeError      = "error"
)

// Enforcement call results
const (
	ResultOK               = "ok"
	ResultPermissionDenied = "permission_denied"
	ResultFailed           = "failed"
)

// Recorder exposes moderation counters. A nil *Recorder discards everything.
type Recorder struct {
	messages           *prometheus.CounterVec
	actions            *prometheus.CounterVec
	calls              *prometheus.CounterVec
	extractionFailures *prometheus.CounterVec
	extractionSeconds  prometheus.Histogram
	cacheLookups       *prometheus.CounterVec
}

// NewRecorder creates the moderation metrics and registers them with reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scamfilter_messages_total",
			Help: "Inbound messages by pipeline outcome",
		}, []string{"outcome"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scamfilter_actions_total",
			Help: "Resolved enforcement actions for detected scams",
		}, []string{"action"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scamfilter_platform_calls_total",
			Help: "Moderation calls against the chat platform by operation and result",
		}, []string{"op", "result"}),
		extractionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scamfilter_extraction_failures_total",
			Help: "Text extraction failures by kind",
		}, []string{"kind"}),
		extractionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scamfilter_extraction_seconds",
			Help:    "Time spent recognizing text in an image",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scamfilter_recognition_cache_lookups_total",
			Help: "Recognition cache lookups by result",
		}, []string{"result"}),
	}
	reg.MustRegister(r.messages, r.actions, r.calls, r.extractionFailures, r.extractionSeconds, r.cacheLookups)
	return r
}

// Message counts a message that left the pipeline with outcome
func (r *Recorder) Message(outcome string) {
	if r == nil {
		return
	}
	r.messages.WithLabelValues(outcome).Inc()
}

// Action counts a resolved enforcement action
func (r *Recorder) Action(action string) {
	if r == nil {
		return
	}
	r.actions.WithLabelValues(action).Inc()
}

// Call counts a platform call
func (r *Recorder) Call(op, result string) {
	if r == nil {
		return
	}
	r.calls.WithLabelValues(op, result).Inc()
}

// ExtractionFailed counts a failed extraction
func (r *Recorder) ExtractionFailed(kind string) {
	if r == nil {
		return
	}
	r.extractionFailures.WithLabelValues(kind).Inc()
}

// ObserveExtraction records how long an extraction took
func (r *Recorder) ObserveExtraction(d time.Duration) {
	if r == nil {
		return
	}
	r.extractionSeconds.Observe(d.Seconds())
}

// CacheLookup counts a recognition cache hit or miss
func (r *Recorder) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}
