// Package metrics provides Prometheus metrics for the LED service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/begillespie/pilight/internal/events"
	"github.com/begillespie/pilight/internal/pwm"
)

var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pilight",
		Name:      "commands_total",
		Help:      "Commands executed, by action and result",
	}, []string{"action", "result"})

	channelDuty = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "pilight",
		Name:      "channel_duty",
		Help:      "Gamma corrected duty cycle (0-255) last written to each channel",
	}, []string{"channel"})

	hardwareErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pilight",
		Name:      "hardware_errors_total",
		Help:      "PWM writes that failed",
	})

	deviceReady = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pilight",
		Name:      "device_ready",
		Help:      "1 while the LED controller accepts colors, 0 once stopped",
	})
)

// ObserveCommand counts one executed command.
func ObserveCommand(action, result string) {
	commandsTotal.WithLabelValues(action, result).Inc()
}

// ObserveHardwareError counts a failed hardware write.
func ObserveHardwareError() {
	hardwareErrors.Inc()
}

// SetReady records whether the controller is accepting colors.
func SetReady(ready bool) {
	if ready {
		deviceReady.Set(1)
		return
	}
	deviceReady.Set(0)
}

// Attach keeps the channel and readiness gauges in sync with bus events.
// The returned func unsubscribes.
func Attach(bus *events.Bus) func() {
	SetReady(true)
	unColor := bus.OnColor(func(e events.ColorChanged) {
		for _, ch := range pwm.Channels {
			channelDuty.WithLabelValues(ch.String()).Set(float64(e.Duty[ch]))
		}
	})
	unStop := bus.OnStopped(func(events.DeviceStopped) {
		for _, ch := range pwm.Channels {
			channelDuty.WithLabelValues(ch.String()).Set(0)
		}
		SetReady(false)
	})
	return func() {
		unColor()
		unStop()
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
