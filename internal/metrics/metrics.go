package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	roomsActiveGauge      prometheus.Gauge
	connectionsGauge      prometheus.Gauge
	handsStartedCounter   prometheus.Counter
	handsCompletedCounter prometheus.Counter
	actionsCounter        *prometheus.CounterVec
	droppedSubsCounter    prometheus.Counter
	timeoutActionsCounter prometheus.Counter
	fatalErrorsCounter    prometheus.Counter
	chatMessagesCounter   prometheus.Counter
}

func (m *metrics) SetRoomsActive(count int) {
	m.roomsActiveGauge.Set(float64(count))
}

func (m *metrics) ConnectionOpened() {
	m.connectionsGauge.Inc()
}

func (m *metrics) ConnectionClosed() {
	m.connectionsGauge.Dec()
}

func (m *metrics) HandStarted() {
	m.handsStartedCounter.Inc()
}

func (m *metrics) HandCompleted() {
	m.handsCompletedCounter.Inc()
}

// Action counts an inbound action by name and outcome ("ok" or an error code).
func (m *metrics) Action(action, result string) {
	m.actionsCounter.WithLabelValues(action, result).Inc()
}

func (m *metrics) SubscriberDropped() {
	m.droppedSubsCounter.Inc()
}

func (m *metrics) TimeoutAction() {
	m.timeoutActionsCounter.Inc()
}

func (m *metrics) FatalError() {
	m.fatalErrorsCounter.Inc()
}

func (m *metrics) ChatMessage() {
	m.chatMessagesCounter.Inc()
}

var Metrics = &metrics{
	roomsActiveGauge: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pokerverse_rooms_active",
		Help: "Number of rooms held by the registry",
	}),
	connectionsGauge: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pokerverse_connections",
		Help: "Open WebSocket connections",
	}),
	handsStartedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokerverse_hands_started_total",
		Help: "Total number of hands started",
	}),
	handsCompletedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokerverse_hands_completed_total",
		Help: "Total number of hands settled",
	}),
	actionsCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokerverse_actions_total",
		Help: "Player actions by action and result",
	}, []string{"action", "result"}),
	droppedSubsCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokerverse_subscribers_dropped_total",
		Help: "Subscribers dropped because their send buffer was full",
	}),
	timeoutActionsCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokerverse_timeout_actions_total",
		Help: "Actions taken by the turn timer",
	}),
	fatalErrorsCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokerverse_fatal_errors_total",
		Help: "Hands aborted on an invariant violation",
	}),
	chatMessagesCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokerverse_chat_messages_total",
		Help: "Chat messages broadcast",
	}),
}
