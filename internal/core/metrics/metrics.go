package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Lejla94/lxp2p/pkg/lib/log"
	"github.com/Lejla94/lxp2p/pkg/types"
)

var logger = log.Logger("core/metrics")

const namespace = "lxp2p"

// Direction 连接方向
type Direction string

const (
	// DirectionInbound 入站连接
	DirectionInbound Direction = "inbound"
	// DirectionOutbound 出站连接
	DirectionOutbound Direction = "outbound"
)

// Metrics 会话层指标
type Metrics struct {
	registry *prometheus.Registry

	connsActive      prometheus.Gauge
	connsTotal       *prometheus.CounterVec
	msgsReceived     *prometheus.CounterVec
	msgsTruncated    *prometheus.CounterVec
	msgsSent         *prometheus.CounterVec
	handlerErrors    *prometheus.CounterVec
	datagramsDropped prometheus.Counter
}

// New 创建指标并注册到新的 Registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of connections currently multiplexed.",
		}),
		connsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Connections established, by direction.",
		}, []string{"direction"}),
		msgsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Inbound messages delivered to the event sink, by mode.",
		}, []string{"mode"}),
		msgsTruncated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_truncated_total",
			Help:      "Inbound messages truncated at the size limit, by mode.",
		}, []string{"mode"}),
		msgsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Outbound messages written, by mode.",
		}, []string{"mode"}),
		handlerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_errors_total",
			Help:      "Stream handler failures, by mode.",
		}, []string{"mode"}),
		datagramsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datagrams_dropped_total",
			Help:      "Inbound datagrams dropped because the per-connection queue was full.",
		}),
	}

	m.registry.MustRegister(
		m.connsActive,
		m.connsTotal,
		m.msgsReceived,
		m.msgsTruncated,
		m.msgsSent,
		m.handlerErrors,
		m.datagramsDropped,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry 返回指标注册表（nil 时返回 nil）
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ConnectionOpened 记录连接进入多路复用
func (m *Metrics) ConnectionOpened(dir Direction) {
	if m == nil {
		return
	}
	m.connsActive.Inc()
	m.connsTotal.WithLabelValues(string(dir)).Inc()
}

// ConnectionClosed 记录连接关闭
func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connsActive.Dec()
}

// MessageReceived 记录入站消息
func (m *Metrics) MessageReceived(mode types.DeliveryMode, truncated bool) {
	if m == nil {
		return
	}
	m.msgsReceived.WithLabelValues(mode.String()).Inc()
	if truncated {
		m.msgsTruncated.WithLabelValues(mode.String()).Inc()
	}
}

// MessageSent 记录出站消息
func (m *Metrics) MessageSent(mode types.DeliveryMode) {
	if m == nil {
		return
	}
	m.msgsSent.WithLabelValues(mode.String()).Inc()
}

// HandlerFailed 记录处理器错误
func (m *Metrics) HandlerFailed(mode types.DeliveryMode) {
	if m == nil {
		return
	}
	m.handlerErrors.WithLabelValues(mode.String()).Inc()
}

// DatagramDropped 记录被丢弃的数据报
func (m *Metrics) DatagramDropped() {
	if m == nil {
		return
	}
	m.datagramsDropped.Inc()
}
