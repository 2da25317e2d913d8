package moire

import (
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

type metrics struct {
	embeds        *prometheus.CounterVec
	extracts      *prometheus.CounterVec
	previews      *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	substitutions *prometheus.CounterVec
	downscales    prometheus.Counter
	duration      *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		embeds: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pozt_embed_total",
				Help: "Total number of embed requests",
			},
			[]string{"strategy", "status"},
		),
		extracts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pozt_extract_total",
				Help: "Total number of extract requests",
			},
			[]string{"method", "status"},
		),
		previews: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pozt_preview_total",
				Help: "Total number of preview renders",
			},
			[]string{"kind", "status"},
		),
		fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pozt_strategy_fallbacks_total",
				Help: "Embeds that fell back to the overlay strategy",
			},
			[]string{"strategy"}, // requested strategy
		),
		substitutions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pozt_method_substitutions_total",
				Help: "Extractions that ran a cheaper method than requested",
			},
			[]string{"requested", "used"},
		),
		downscales: f.NewCounter(
			prometheus.CounterOpts{
				Name: "pozt_extract_downscales_total",
				Help: "Extractions downscaled to the working budget",
			},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pozt_operation_duration_seconds",
				Help:    "Engine operation duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"}, // embed, extract, preview, detect
		),
	}
}

func (m *metrics) observe(op string, start time.Time) {
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func status(err error) string {
	if err == nil {
		return "ok"
	}
	return string(Classify(err))
}

// Sample is one metric value. Histograms report their observation count
// and sum as two samples with "_count" and "_sum" suffixes.
type Sample struct {
	Name   string            `json:"name" yaml:"name"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Value  float64           `json:"value" yaml:"value"`
}

func samples(families []*dto.MetricFamily) []Sample {
	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels map[string]string
			if len(m.GetLabel()) > 0 {
				labels = make(map[string]string, len(m.GetLabel()))
				for _, lp := range m.GetLabel() {
					labels[lp.GetName()] = lp.GetValue()
				}
			}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				out = append(out, Sample{Name: mf.GetName(), Labels: labels, Value: m.GetCounter().GetValue()})
			case dto.MetricType_GAUGE:
				out = append(out, Sample{Name: mf.GetName(), Labels: labels, Value: m.GetGauge().GetValue()})
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				out = append(out,
					Sample{Name: mf.GetName() + "_count", Labels: labels, Value: float64(h.GetSampleCount())},
					Sample{Name: mf.GetName() + "_sum", Labels: labels, Value: h.GetSampleSum()},
				)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
