package notifier

import (
	"context"
	"errors"
	"fmt"

	"GoldSentinel/internal/logger"
	"GoldSentinel/internal/metrics"
	"GoldSentinel/internal/model"
)

// ErrNoForwarders is returned when a report is dispatched with nothing configured to receive it.
var ErrNoForwarders = errors.New("no report forwarders configured")

// Forwarder delivers an assembled report payload to one destination.
type Forwarder interface {
	Forward(ctx context.Context, payload *model.ForwardPayload) error
	Name() string
}

// Dispatcher fans a payload out to every configured Forwarder.
type Dispatcher struct {
	forwarders []Forwarder
	log        *logger.Logger
}

// NewDispatcher creates a Dispatcher. Nil forwarders are skipped.
func NewDispatcher(forwarders ...Forwarder) *Dispatcher {
	d := &Dispatcher{log: logger.Get().With("component", "dispatcher")}
	for _, f := range forwarders {
		if f != nil {
			d.forwarders = append(d.forwarders, f)
		}
	}
	return d
}

// Len returns the number of configured forwarders.
func (d *Dispatcher) Len() int { return len(d.forwarders) }

// Dispatch delivers payload to every forwarder, continuing past failures.
// The returned error joins every failed delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, payload *model.ForwardPayload) error {
	if len(d.forwarders) == 0 {
		return ErrNoForwarders
	}
	var errs []error
	for _, f := range d.forwarders {
		if err := f.Forward(ctx, payload); err != nil {
			metrics.ForwardTotal.WithLabelValues(f.Name(), "error").Inc()
			d.log.Errorw("report delivery failed", "forwarder", f.Name(), "report_id", payload.System.ReportID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", f.Name(), err))
			continue
		}
		metrics.ForwardTotal.WithLabelValues(f.Name(), "success").Inc()
		d.log.Infow("report delivered", "forwarder", f.Name(), "report_id", payload.System.ReportID)
	}
	return errors.Join(errs...)
}
