package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求延迟（秒），path 使用 chi 的路由模板避免标签基数爆炸
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)

	SchedulesPlanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "planner_schedules_planned_total",
			Help: "Total number of schedules planned for newly committed applications",
		},
	)

	// 每次检测后被标记为冲突的周数
	ConflictedWeeks = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "planner_conflicted_weeks",
			Help:    "Number of conflicted weeks found per detection run",
			Buckets: []float64{0, 1, 2, 3, 5, 8},
		},
	)

	Recalculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_recalculations_total",
			Help: "Total number of schedule recalculations",
		},
		[]string{"outcome"}, // outcome: unchanged, adjusted, at_risk
	)

	Deferrals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_deferrals_total",
			Help: "Total number of schedule deferrals",
		},
		[]string{"held"}, // held: 是否有里程碑停在截止日期
	)

	CapacityAdvice = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_capacity_advice_total",
			Help: "Total number of capacity advice requests",
		},
		[]string{"result"}, // result: no_capacity, suggested, empty_backlog
	)

	ScheduleLockContention = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "planner_schedule_lock_contention_total",
			Help: "Total number of schedule mutations rejected because another one was in flight",
		},
	)

	MailsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mails_published_total",
			Help: "Total number of mails published to the mail queue",
		},
		[]string{"type", "status"}, // status: success, failed
	)
)

const (
	RecalculationUnchanged = "unchanged"
	RecalculationAdjusted  = "adjusted"
	RecalculationAtRisk    = "at_risk"

	CapacityNone         = "no_capacity"
	CapacitySuggested    = "suggested"
	CapacityEmptyBacklog = "empty_backlog"
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func RecordConflictedWeeks(n int) {
	ConflictedWeeks.Observe(float64(n))
}

// RecordRecalculation 按结果记录一次重新计算，at risk 优先于 adjusted
func RecordRecalculation(isAdjusted, isAtRisk bool) {
	outcome := RecalculationUnchanged
	switch {
	case isAtRisk:
		outcome = RecalculationAtRisk
	case isAdjusted:
		outcome = RecalculationAdjusted
	}
	Recalculations.WithLabelValues(outcome).Inc()
}

func RecordDeferral(held bool) {
	label := "false"
	if held {
		label = "true"
	}
	Deferrals.WithLabelValues(label).Inc()
}

func RecordCapacityAdvice(result string) {
	CapacityAdvice.WithLabelValues(result).Inc()
}

func RecordMailPublished(mailType string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	MailsPublished.WithLabelValues(mailType, status).Inc()
}
