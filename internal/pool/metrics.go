package pool

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type instruments struct {
	meter    metric.Meter
	live     metric.Int64ObservableGauge
	free     metric.Int64ObservableGauge
	overflow metric.Int64ObservableGauge
}

var (
	instrumentsOnce sync.Once
	poolInstruments *instruments
)

func loadInstruments() *instruments {
	instrumentsOnce.Do(func() {
		meter := otel.Meter("spawnpool/pool")
		live, err := meter.Int64ObservableGauge("spawnpool_pool_instances_live",
			metric.WithDescription("Instances owned by the pool (free + held), excluding overflow"),
			metric.WithUnit("{instance}"),
		)
		if err != nil {
			slog.Warn("creating pool gauge", "name", "live", "err", err)
			return
		}
		free, err := meter.Int64ObservableGauge("spawnpool_pool_instances_free",
			metric.WithDescription("Instances ready for acquire"),
			metric.WithUnit("{instance}"),
		)
		if err != nil {
			slog.Warn("creating pool gauge", "name", "free", "err", err)
			return
		}
		overflow, err := meter.Int64ObservableGauge("spawnpool_pool_instances_overflow",
			metric.WithDescription("Held instances created past the pool max size"),
			metric.WithUnit("{instance}"),
		)
		if err != nil {
			slog.Warn("creating pool gauge", "name", "overflow", "err", err)
			return
		}
		poolInstruments = &instruments{meter: meter, live: live, free: free, overflow: overflow}
	})
	return poolInstruments
}

type gaugeSource interface {
	Name() string
	gauges() (live, free, overflow int64)
}

// observe registers a gauge callback for p. The registration is dropped on Close.
func observe(p gaugeSource) metric.Registration {
	in := loadInstruments()
	if in == nil {
		return nil
	}

	attrs := metric.WithAttributes(attribute.String("pool", p.Name()))
	reg, err := in.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		live, free, overflow := p.gauges()
		o.ObserveInt64(in.live, live, attrs)
		o.ObserveInt64(in.free, free, attrs)
		o.ObserveInt64(in.overflow, overflow, attrs)
		return nil
	}, in.live, in.free, in.overflow)
	if err != nil {
		slog.Warn("registering pool gauges", "pool", p.Name(), "err", err)
		return nil
	}
	return reg
}
