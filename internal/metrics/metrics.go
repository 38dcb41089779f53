package metrics

import "github.com/prometheus/client_golang/prometheus"

// BotMetrics exposes counters/histograms for the chat flow.
type BotMetrics struct {
	inboundTotal      *prometheus.CounterVec
	outboundTotal     *prometheus.CounterVec
	duplicateTotal    prometheus.Counter
	sessionsEnded     *prometheus.CounterVec
	reservationsTotal *prometheus.CounterVec
	turnLatency       *prometheus.HistogramVec
}

func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restobot",
			Subsystem: "chat",
			Name:      "inbound_messages_total",
			Help:      "Inbound messages by routed intent or dialogue step",
		}, []string{"route"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restobot",
			Subsystem: "chat",
			Name:      "outbound_replies_total",
			Help:      "Replies handed to the messaging gateway",
		}, []string{"status"}),
		duplicateTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "restobot",
			Subsystem: "chat",
			Name:      "duplicate_messages_total",
			Help:      "Redelivered messages dropped before reaching the dialogue",
		}),
		sessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restobot",
			Subsystem: "reservation",
			Name:      "sessions_ended_total",
			Help:      "Reservation dialogues that ended, by reason",
		}, []string{"reason"}),
		reservationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restobot",
			Subsystem: "reservation",
			Name:      "recorded_total",
			Help:      "Completed reservations written to the ledger",
		}, []string{"status"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "restobot",
			Subsystem: "chat",
			Name:      "turn_latency_seconds",
			Help:      "Time to handle one inbound message including delivery",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.duplicateTotal, m.sessionsEnded, m.reservationsTotal, m.turnLatency)
	return m
}

// RegisterActiveSessions exposes the live session count as a gauge.
func RegisterActiveSessions(reg prometheus.Registerer, count func() int) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "restobot",
		Subsystem: "reservation",
		Name:      "active_sessions",
		Help:      "Reservation dialogues currently in progress",
	}, func() float64 { return float64(count()) }))
}

func (m *BotMetrics) ObserveInbound(route string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(route).Inc()
}

func (m *BotMetrics) ObserveOutbound(status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(status).Inc()
}

func (m *BotMetrics) ObserveDuplicate() {
	if m == nil {
		return
	}
	m.duplicateTotal.Inc()
}

// ObserveSessionEnded counts a dialogue ending: completed, cancelled or expired.
func (m *BotMetrics) ObserveSessionEnded(reason string) {
	if m == nil {
		return
	}
	m.sessionsEnded.WithLabelValues(reason).Inc()
}

func (m *BotMetrics) ObserveReservation(status string) {
	if m == nil {
		return
	}
	m.reservationsTotal.WithLabelValues(status).Inc()
}

func (m *BotMetrics) ObserveTurnLatency(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.WithLabelValues(outcome).Observe(seconds)
}
