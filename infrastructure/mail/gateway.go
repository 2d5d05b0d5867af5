package mail

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	domainmail "github.com/felixgeelhaar/gradewatch-queue/domain/mail"
	"github.com/felixgeelhaar/gradewatch-queue/infrastructure/logging"
)

// GatewayConfig configures the mail gateway's queue and resilience
// policies.
type GatewayConfig struct {
	// QueueCapacity bounds the number of messages buffered ahead of the
	// provider. A full queue drops its oldest message to admit a new
	// one, rather than blocking the caller.
	QueueCapacity int

	// MaxRetries is the number of send attempts before giving up on a
	// single message.
	MaxRetries int

	// RetryDelay is the initial backoff between retries.
	RetryDelay time.Duration

	// CircuitBreakerThreshold is the number of consecutive failures
	// before the breaker opens.
	CircuitBreakerThreshold int

	// CircuitBreakerTimeout is how long the breaker stays open before
	// allowing a trial request.
	CircuitBreakerTimeout time.Duration
}

// DefaultGatewayConfig returns sensible defaults for local development.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		QueueCapacity:           256,
		MaxRetries:              3,
		RetryDelay:              time.Second,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
	}
}

// Gateway is a domainmail.Gateway backed by a bounded, asynchronously
// drained queue. Queue never blocks and never surfaces delivery
// outcome to the caller, matching the broker's non-blocking mail
// contract (spec's MailGateway module).
type Gateway struct {
	cfg      GatewayConfig
	provider Provider
	retrier  retry.Retry[struct{}]
	breaker  circuitbreaker.CircuitBreaker[struct{}]

	queue chan domainmail.Message

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewGateway creates a gateway that dispatches through provider.
func NewGateway(provider Provider, cfg GatewayConfig) *Gateway {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 256
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.CircuitBreakerThreshold <= 0 {
		cfg.CircuitBreakerThreshold = 5
	}
	if cfg.CircuitBreakerTimeout <= 0 {
		cfg.CircuitBreakerTimeout = 30 * time.Second
	}

	threshold := cfg.CircuitBreakerThreshold

	return &Gateway{
		cfg:      cfg,
		provider: provider,
		queue:    make(chan domainmail.Message, cfg.QueueCapacity),
		retrier: retry.New[struct{}](retry.Config{
			MaxAttempts:   cfg.MaxRetries,
			InitialDelay:  cfg.RetryDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    2.0,
		}),
		breaker: circuitbreaker.New[struct{}](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    cfg.CircuitBreakerTimeout,
			Timeout:     cfg.CircuitBreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- threshold is validated positive
			},
		}),
	}
}

// Start begins draining the queue in a background goroutine.
func (g *Gateway) Start(ctx context.Context) {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return
	}
	g.running = true
	ctx, g.cancel = context.WithCancel(ctx)
	g.mu.Unlock()

	g.wg.Add(1)
	go g.drain(ctx)
}

// Stop halts the drain loop, without waiting for queued messages to
// flush.
func (g *Gateway) Stop() {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	g.running = false
	if g.cancel != nil {
		g.cancel()
	}
	g.mu.Unlock()

	g.wg.Wait()
}

// Queue admits msg for asynchronous delivery. If the queue is at
// capacity, the oldest buffered message is dropped to make room; the
// drop is logged, not surfaced to the caller.
func (g *Gateway) Queue(msg domainmail.Message) {
	select {
	case g.queue <- msg:
		return
	default:
	}

	select {
	case dropped := <-g.queue:
		logging.Warn().
			Add(logging.Component("mail")).
			Add(logging.Recipient(dropped.To)).
			Msg("dropped oldest queued message: queue at capacity")
	default:
	}

	select {
	case g.queue <- msg:
	default:
		logging.Warn().
			Add(logging.Component("mail")).
			Add(logging.Recipient(msg.To)).
			Msg("dropped incoming message: queue at capacity")
	}
}

func (g *Gateway) drain(ctx context.Context) {
	defer g.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-g.queue:
			g.send(ctx, msg)
		}
	}
}

func (g *Gateway) send(ctx context.Context, msg domainmail.Message) {
	_, err := g.breaker.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return g.retrier.Do(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, g.provider.Send(ctx, msg)
		})
	})
	if err != nil {
		logging.Error().
			Add(logging.Component("mail")).
			Add(logging.Recipient(msg.To)).
			Add(logging.ErrorField(err)).
			Msg("mail delivery failed")
	}
}

var _ domainmail.Gateway = (*Gateway)(nil)
