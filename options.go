package arpmonitor

import (
	"github.com/go-logr/logr"
)

type HistoryOption interface {
	apply(*History)
}

type historyOptionFunc func(*History)

func (f historyOptionFunc) apply(history *History) {
	f(history)
}

// HistoryMaxLenOption bounds the number of MACs retained per IP. Zero or less keeps every entry.
func HistoryMaxLenOption(n int) HistoryOption {
	return historyOptionFunc(func(history *History) {
		history.maxLen = n
	})
}

type MonitorOption interface {
	apply(*Monitor)
}

type monitorOptionFunc func(*Monitor)

func (f monitorOptionFunc) apply(monitor *Monitor) {
	f(monitor)
}

// LoggerOption configures the logger used for classification and cycle reporting
func LoggerOption(logger logr.Logger) MonitorOption {
	return monitorOptionFunc(func(monitor *Monitor) {
		monitor.logger = logger
	})
}

// AlerterOption configures where alerts for changed bindings are delivered
func AlerterOption(alerter Alerter) MonitorOption {
	return monitorOptionFunc(func(monitor *Monitor) {
		monitor.alerter = alerter
	})
}

// NotifyBufferOption sets the capacity of the Notifications channel. Changes are dropped when it is full.
func NotifyBufferOption(size int) MonitorOption {
	return monitorOptionFunc(func(monitor *Monitor) {
		monitor.changes = make(chan Change, size)
	})
}
