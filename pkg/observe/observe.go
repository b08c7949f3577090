// Package observe provides jotai.Observer implementations: structured
// logging, Prometheus metrics, and OpenTelemetry traces, plus the
// composite to combine them. Attach them with jotai.WithObserver or
// Store.AddObserver.
package observe

import (
	"log/slog"
	"time"

	"github.com/leobastiani/jotai/pkg/jotai"
)

// Noop is an Observer that does nothing. It is useful as a default in
// code that always wants a non-nil observer.
type Noop struct{}

func (Noop) OnGet(jotai.AnyAtom, bool)                          {}
func (Noop) OnCompute(jotai.AnyAtom, time.Duration, error)      {}
func (Noop) OnSet(jotai.AnyAtom)                                {}
func (Noop) OnInvalidate(jotai.AnyAtom, int)                    {}
func (Noop) OnNotify(jotai.AnyAtom, int)                        {}
func (Noop) OnSettle(jotai.AnyAtom, time.Duration, bool, error) {}

// Composite fans events out to multiple observers.
type Composite struct {
	observers []jotai.Observer
}

// NewComposite creates an Observer that forwards events to each
// non-nil observer in obs.
func NewComposite(obs ...jotai.Observer) jotai.Observer {
	filtered := make([]jotai.Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return Noop{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &Composite{observers: filtered}
}

func (c *Composite) OnGet(a jotai.AnyAtom, hit bool) {
	for _, o := range c.observers {
		o.OnGet(a, hit)
	}
}

func (c *Composite) OnCompute(a jotai.AnyAtom, d time.Duration, err error) {
	for _, o := range c.observers {
		o.OnCompute(a, d, err)
	}
}

func (c *Composite) OnSet(a jotai.AnyAtom) {
	for _, o := range c.observers {
		o.OnSet(a)
	}
}

func (c *Composite) OnInvalidate(a jotai.AnyAtom, dependents int) {
	for _, o := range c.observers {
		o.OnInvalidate(a, dependents)
	}
}

func (c *Composite) OnNotify(a jotai.AnyAtom, subscribers int) {
	for _, o := range c.observers {
		o.OnNotify(a, subscribers)
	}
}

func (c *Composite) OnSettle(a jotai.AnyAtom, d time.Duration, superseded bool, err error) {
	for _, o := range c.observers {
		o.OnSettle(a, d, superseded, err)
	}
}

// Logging logs store activity through slog. Gets are logged only on
// miss and only at Debug; computations and settlements carry their
// duration and outcome.
type Logging struct {
	log *slog.Logger
}

// NewLogging creates a logging observer. A nil logger means
// slog.Default().
func NewLogging(log *slog.Logger) *Logging {
	if log == nil {
		log = slog.Default()
	}
	return &Logging{log: log}
}

func (l *Logging) OnGet(a jotai.AnyAtom, hit bool) {
	if !hit {
		l.log.Debug("atom miss", "atom", a.Label())
	}
}

func (l *Logging) OnCompute(a jotai.AnyAtom, d time.Duration, err error) {
	if err != nil {
		l.log.Warn("atom compute failed", "atom", a.Label(), "duration", d, "error", err)
		return
	}
	l.log.Debug("atom computed", "atom", a.Label(), "duration", d)
}

func (l *Logging) OnSet(a jotai.AnyAtom) {
	l.log.Debug("atom written", "atom", a.Label())
}

func (l *Logging) OnInvalidate(a jotai.AnyAtom, dependents int) {
	l.log.Debug("atom invalidated", "atom", a.Label(), "dependents", dependents)
}

func (l *Logging) OnNotify(a jotai.AnyAtom, subscribers int) {
	l.log.Debug("subscribers notified", "atom", a.Label(), "subscribers", subscribers)
}

func (l *Logging) OnSettle(a jotai.AnyAtom, d time.Duration, superseded bool, err error) {
	switch {
	case superseded:
		l.log.Debug("async result superseded", "atom", a.Label(), "duration", d)
	case err != nil:
		l.log.Warn("async compute failed", "atom", a.Label(), "duration", d, "error", err)
	default:
		l.log.Debug("async settled", "atom", a.Label(), "duration", d)
	}
}

var (
	_ jotai.Observer = Noop{}
	_ jotai.Observer = (*Composite)(nil)
	_ jotai.Observer = (*Logging)(nil)
)
