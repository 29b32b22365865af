package registry

import "github.com/prometheus/client_golang/prometheus"

// Collector exports registry diagnostics as Prometheus metrics.
type Collector struct {
	reg *Registry

	resources     *prometheus.Desc
	bytes         *prometheus.Desc
	peakResources *prometheus.Desc
	peakBytes     *prometheus.Desc
	allocations   *prometheus.Desc
	deallocations *prometheus.Desc
}

// NewCollector returns a collector reading from r. Metric names are
// prefixed with namespace (e.g. "vcb").
func NewCollector(r *Registry, namespace string) *Collector {
	fq := func(name string) string {
		return prometheus.BuildFQName(namespace, "registry", name)
	}
	return &Collector{
		reg: r,
		resources: prometheus.NewDesc(fq("resources"),
			"Live tracked resources by type.", []string{"type"}, nil),
		bytes: prometheus.NewDesc(fq("bytes"),
			"Bytes held by live tracked resources by type.", []string{"type"}, nil),
		peakResources: prometheus.NewDesc(fq("peak_resources"),
			"High-water mark of live resources.", nil, nil),
		peakBytes: prometheus.NewDesc(fq("peak_bytes"),
			"High-water mark of live resource bytes.", nil, nil),
		allocations: prometheus.NewDesc(fq("allocations_total"),
			"Resources registered since creation.", nil, nil),
		deallocations: prometheus.NewDesc(fq("deallocations_total"),
			"Resources released or disposed since creation.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.resources
	ch <- c.bytes
	ch <- c.peakResources
	ch <- c.peakBytes
	ch <- c.allocations
	ch <- c.deallocations
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	d := c.reg.Diagnostics()
	for t, ts := range d.ByType {
		ch <- prometheus.MustNewConstMetric(c.resources, prometheus.GaugeValue, float64(ts.Count), t)
		ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.GaugeValue, float64(ts.Bytes), t)
	}
	ch <- prometheus.MustNewConstMetric(c.peakResources, prometheus.GaugeValue, float64(d.Peak.Resources))
	ch <- prometheus.MustNewConstMetric(c.peakBytes, prometheus.GaugeValue, float64(d.Peak.Bytes))
	ch <- prometheus.MustNewConstMetric(c.allocations, prometheus.CounterValue, float64(d.TotalAllocations))
	ch <- prometheus.MustNewConstMetric(c.deallocations, prometheus.CounterValue, float64(d.TotalDeallocations))
}
