// Package metrics exposes Prometheus collectors shared by the bot.
package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "placementbot"

var (
	// BotUpdates counts every update that reached the middleware chain.
	BotUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "updates_total", Help: "Processed telegram updates",
	})
	// HandlerErrors counts failed handlers by error code.
	HandlerErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "handler_errors_total", Help: "Handler errors by error code",
	}, []string{"code"})
	// MessagesSent counts replies sent while handling updates.
	MessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "messages_sent_total", Help: "Messages sent in reply to updates",
	})
	// SendFailures counts outbound calls that failed after retries, by action.
	SendFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "send_failures_total", Help: "Failed outbound telegram calls",
	}, []string{"action"})
	// RegistrationsCompleted counts finished dialogues by payment method.
	RegistrationsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "registrations_completed_total", Help: "Completed registration dialogues",
	}, []string{"method"})
	// PaymentsVerified counts successful /verify calls.
	PaymentsVerified = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "payments_verified_total", Help: "Payments verified by admins",
	})
	// SessionsExpired counts sessions removed by the idle sweeper.
	SessionsExpired = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "sessions_expired_total", Help: "Registration sessions dropped after idling",
	})
)

func init() {
	prometheus.MustRegister(
		BotUpdates,
		HandlerErrors,
		MessagesSent,
		SendFailures,
		RegistrationsCompleted,
		PaymentsVerified,
		SessionsExpired,
	)
}

var (
	gaugesMu sync.Mutex
	gauges   = map[string]*gaugeSource{}
)

type gaugeSource struct {
	fn atomic.Pointer[func() float64]
}

func (g *gaugeSource) value() float64 {
	if fn := g.fn.Load(); fn != nil {
		return (*fn)()
	}
	return 0
}

// RegisterGauge exposes a value sampled at scrape time, such as the open
// session count. The collector is registered once per name; a later call
// with the same name rebinds it to fn.
func RegisterGauge(name, help string, fn func() float64) error {
	gaugesMu.Lock()
	defer gaugesMu.Unlock()

	if src, ok := gauges[name]; ok {
		src.fn.Store(&fn)
		return nil
	}
	src := &gaugeSource{}
	src.fn.Store(&fn)
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Name: name, Help: help,
	}, src.value)
	if err := prometheus.Register(g); err != nil {
		return fmt.Errorf("metrics: register gauge %s: %w", name, err)
	}
	gauges[name] = src
	return nil
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler { return promhttp.Handler() }
