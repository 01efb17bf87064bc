package payment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/patelashutosh/bloom-store/pkg/circuitbreaker"
)

// BreakerGateway bounds each charge with a timeout and stops calling the
// processor after repeated faults. Declines do not trip the breaker.
type BreakerGateway struct {
	next    Gateway
	timeout time.Duration
	breaker *circuitbreaker.Breaker[*ChargeResult]
}

func NewBreakerGateway(next Gateway, timeout time.Duration, log *zap.Logger) *BreakerGateway {
	return &BreakerGateway{
		next:    next,
		timeout: timeout,
		breaker: circuitbreaker.New[*ChargeResult](circuitbreaker.Settings{
			Name:                "payment",
			ConsecutiveFailures: 5,
			OpenTimeout:         30 * time.Second,
			OnStateChange: func(name, from, to string) {
				log.Warn("circuit breaker state changed",
					zap.String("breaker", name), zap.String("from", from), zap.String("to", to))
			},
		}),
	}
}

// Charge returns circuitbreaker.ErrOpen without calling through while open.
func (g *BreakerGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	return g.breaker.Execute(func() (*ChargeResult, error) {
		if g.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		return g.next.Charge(ctx, req)
	})
}
