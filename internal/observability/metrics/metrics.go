package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics exposes counters for the report pipeline.
type PipelineMetrics struct {
	renderTotal   *prometheus.CounterVec
	deliveryTotal *prometheus.CounterVec
	recordTotal   *prometheus.CounterVec
	submitLatency prometheus.Histogram
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		renderTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pathlab",
			Name:      "pdf_render_total",
			Help:      "PDF backend attempts by outcome",
		}, []string{"backend", "outcome"}),
		deliveryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pathlab",
			Name:      "delivery_total",
			Help:      "WhatsApp delivery attempts by mechanism and outcome",
		}, []string{"mechanism", "outcome"}),
		recordTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pathlab",
			Name:      "reports_recorded_total",
			Help:      "Completed report rows written to the store",
		}, []string{"outcome"}),
		submitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pathlab",
			Name:      "submit_latency_seconds",
			Help:      "Latency of report submissions end to end",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.renderTotal, m.deliveryTotal, m.recordTotal, m.submitLatency)
	return m
}

func (m *PipelineMetrics) ObserveRender(backend, outcome string) {
	if m == nil {
		return
	}
	m.renderTotal.WithLabelValues(backend, outcome).Inc()
}

func (m *PipelineMetrics) ObserveDelivery(mechanism, outcome string) {
	if m == nil {
		return
	}
	m.deliveryTotal.WithLabelValues(mechanism, outcome).Inc()
}

func (m *PipelineMetrics) ObserveRecord(ok bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if ok {
		outcome = "stored"
	}
	m.recordTotal.WithLabelValues(outcome).Inc()
}

func (m *PipelineMetrics) ObserveSubmitLatency(seconds float64) {
	if m == nil {
		return
	}
	m.submitLatency.Observe(seconds)
}
