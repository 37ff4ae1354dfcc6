package metrics

import "github.com/prometheus/client_golang/prometheus"

type Observer interface {
	Observe(val float64, labels ...string)

	// for now we will tightly couple to the prometheus collector type
	// the go otel metrics sdk also has a prometheus adapter that implements this interface.
	prometheus.Collector
}

type Metrics struct {
	UpdateCount    Observer
	CommandCount   Observer
	SentCount      Observer
	SendErrors     Observer
	NotifyFanout   Observer
	CommandLatency Observer
}

func (m Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.UpdateCount,
		m.CommandCount,
		m.SentCount,
		m.SendErrors,
		m.NotifyFanout,
		m.CommandLatency,
	}
}
