package router

import "sync/atomic"

type MetricsSnapshot struct {
	Sends       int64
	Enqueued    int64
	Delivered   int64
	Dropped     int64
	Intercepted int64
}

type Metrics struct {
	sends       atomic.Int64
	enqueued    atomic.Int64
	delivered   atomic.Int64
	dropped     atomic.Int64
	intercepted atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordSend(enqueued int) {
	m.sends.Add(1)
	m.enqueued.Add(int64(enqueued))
}

func (m *Metrics) RecordDelivered(delta int) {
	m.delivered.Add(int64(delta))
}

func (m *Metrics) RecordDropped(delta int) {
	m.dropped.Add(int64(delta))
}

func (m *Metrics) RecordIntercepted(delta int) {
	m.intercepted.Add(int64(delta))
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Sends:       m.sends.Load(),
		Enqueued:    m.enqueued.Load(),
		Delivered:   m.delivered.Load(),
		Dropped:     m.dropped.Load(),
		Intercepted: m.intercepted.Load(),
	}
}
