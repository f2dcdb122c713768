package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	NotificationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appetite_notifications_created_total",
			Help: "Notifications added to user stores",
		},
		[]string{"type", "source"},
	)

	NotificationsDeduplicated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appetite_notifications_deduplicated_total",
			Help: "Status changes dropped because they were already notified",
		},
		[]string{"source"},
	)

	PollCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appetite_poll_cycles_total",
			Help: "Order poll cycles by result",
		},
		[]string{"result"},
	)

	PushEventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appetite_push_events_dropped_total",
			Help: "Push events ignored by the listener",
		},
		[]string{"reason"},
	)

	Sessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "appetite_notification_sessions",
			Help: "Open notification sessions",
		},
	)
)

func Init() {
	prometheus.MustRegister(NotificationsCreated, NotificationsDeduplicated, PollCycles, PushEventsDropped, Sessions)
}
