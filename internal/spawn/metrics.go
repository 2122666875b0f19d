package spawn

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	attemptsOnce    sync.Once
	attemptsCounter metric.Int64Counter
)

func loadAttemptsCounter() metric.Int64Counter {
	attemptsOnce.Do(func() {
		c, err := otel.Meter("spawnpool/spawn").Int64Counter("spawn_attempts_total",
			metric.WithDescription("Spawn attempts by outcome"),
			metric.WithUnit("{attempt}"),
		)
		if err != nil {
			slog.Warn("creating spawn counter", "err", err)
			return
		}
		attemptsCounter = c
	})
	return attemptsCounter
}

func recordAttempt(spawner string, o Outcome) {
	c := loadAttemptsCounter()
	if c == nil {
		return
	}
	c.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("spawner", spawner),
		attribute.String("outcome", o.String()),
	))
}
