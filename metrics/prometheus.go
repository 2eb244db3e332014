// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tidelock/tide/log"
)

const namespace = "tide_metrics"

var logger = log.WithContext("pkg", "metrics")

// InitializePrometheusMetrics creates a new instance of the Prometheus service and
// sets the implementation as the default metrics services.
func InitializePrometheusMetrics() {
	// don't allow for reset
	if _, ok := metrics.(*prometheusMetrics); !ok {
		metrics = newPrometheusMetrics()
	}
}

type prometheusMetrics struct {
	counters      sync.Map
	counterVecs   sync.Map
	gauges        sync.Map
	histograms    sync.Map
	histogramVecs sync.Map
}

func newPrometheusMetrics() Metrics {
	return &prometheusMetrics{}
}

func (o *prometheusMetrics) GetOrCreateCountMeter(name string) CountMeter {
	mapItem, ok := o.counters.Load(name)
	if !ok {
		meter := o.newCountMeter(name)
		o.counters.Store(name, meter)
		return meter
	}
	return mapItem.(CountMeter)
}

func (o *prometheusMetrics) GetOrCreateCountVecMeter(name string, labels []string) CountVecMeter {
	mapItem, ok := o.counterVecs.Load(name)
	if !ok {
		meter := o.newCountVecMeter(name, labels)
		o.counterVecs.Store(name, meter)
		return meter
	}
	return mapItem.(CountVecMeter)
}

func (o *prometheusMetrics) GetOrCreateGaugeMeter(name string) GaugeMeter {
	mapItem, ok := o.gauges.Load(name)
	if !ok {
		meter := o.newGaugeMeter(name)
		o.gauges.Store(name, meter)
		return meter
	}
	return mapItem.(GaugeMeter)
}

func (o *prometheusMetrics) GetOrCreateHistogramMeter(name string, buckets []int64) HistogramMeter {
	mapItem, ok := o.histograms.Load(name)
	if !ok {
		meter := o.newHistogramMeter(name, buckets)
		o.histograms.Store(name, meter)
		return meter
	}
	return mapItem.(HistogramMeter)
}

func (o *prometheusMetrics) GetOrCreateHistogramVecMeter(name string, labels []string, buckets []int64) HistogramVecMeter {
	mapItem, ok := o.histogramVecs.Load(name)
	if !ok {
		meter := o.newHistogramVecMeter(name, labels, buckets)
		o.histogramVecs.Store(name, meter)
		return meter
	}
	return mapItem.(HistogramVecMeter)
}

func (o *prometheusMetrics) GetOrCreateHandler() http.Handler {
	return promhttp.Handler()
}

func (o *prometheusMetrics) newCountMeter(name string) CountMeter {
	meter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
	})
	if err := prometheus.Register(meter); err != nil {
		logger.Warn("unable to register metric", "name", name, "error", err)
	}
	return &promCountMeter{meter}
}

func (o *prometheusMetrics) newCountVecMeter(name string, labels []string) CountVecMeter {
	meter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
	}, labels)
	if err := prometheus.Register(meter); err != nil {
		logger.Warn("unable to register metric", "name", name, "error", err)
	}
	return &promCountVecMeter{meter}
}

func (o *prometheusMetrics) newGaugeMeter(name string) GaugeMeter {
	meter := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
	})
	if err := prometheus.Register(meter); err != nil {
		logger.Warn("unable to register metric", "name", name, "error", err)
	}
	return &promGaugeMeter{meter}
}

func (o *prometheusMetrics) newHistogramMeter(name string, buckets []int64) HistogramMeter {
	floatBuckets := make([]float64, len(buckets))
	for i, bucket := range buckets {
		floatBuckets[i] = float64(bucket)
	}
	meter := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Buckets:   floatBuckets,
	})
	if err := prometheus.Register(meter); err != nil {
		logger.Warn("unable to register metric", "name", name, "error", err)
	}
	return &promHistogramMeter{meter}
}

func (o *prometheusMetrics) newHistogramVecMeter(name string, labels []string, buckets []int64) HistogramVecMeter {
	floatBuckets := make([]float64, len(buckets))
	for i, bucket := range buckets {
		floatBuckets[i] = float64(bucket)
	}
	meter := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Buckets:   floatBuckets,
	}, labels)
	if err := prometheus.Register(meter); err != nil {
		logger.Warn("unable to register metric", "name", name, "error", err)
	}
	return &promHistogramVecMeter{meter}
}

type promCountMeter struct {
	counter prometheus.Counter
}

func (c *promCountMeter) Add(i int64) {
	c.counter.Add(float64(i))
}

type promCountVecMeter struct {
	counter *prometheus.CounterVec
}

func (c *promCountVecMeter) AddWithLabel(i int64, labels map[string]string) {
	c.counter.With(labels).Add(float64(i))
}

type promGaugeMeter struct {
	gauge prometheus.Gauge
}

func (g *promGaugeMeter) Add(i int64) {
	g.gauge.Add(float64(i))
}

func (g *promGaugeMeter) Set(i int64) {
	g.gauge.Set(float64(i))
}

type promHistogramMeter struct {
	histogram prometheus.Histogram
}

func (h *promHistogramMeter) Observe(i int64) {
	h.histogram.Observe(float64(i))
}

type promHistogramVecMeter struct {
	histogram *prometheus.HistogramVec
}

func (h *promHistogramVecMeter) ObserveWithLabels(i int64, labels map[string]string) {
	h.histogram.With(labels).Observe(float64(i))
}
