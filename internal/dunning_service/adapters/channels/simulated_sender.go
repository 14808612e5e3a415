package channels

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

const maxSendAttempts = 3

// SimulatedSender is a stand-in for real SMS/email/push gateways. It logs
// each dispatch, sleeps for a small simulated latency, and can be configured
// with a failure rate for exercising the executor's FAILED path.
type SimulatedSender struct {
	logger       *slog.Logger
	failRate     float64 // chance a single attempt fails (0.0 to 1.0)
	minLatencyMs int
	maxLatencyMs int
}

// NewSimulatedSender creates a SimulatedSender.
func NewSimulatedSender(logger *slog.Logger, failRate float64, minLatencyMs, maxLatencyMs int) Sender {
	return &SimulatedSender{
		logger:       logger.With("adapter", "simulated_sender"),
		failRate:     failRate,
		minLatencyMs: minLatencyMs,
		maxLatencyMs: maxLatencyMs,
	}
}

func (s *SimulatedSender) SendSMS(ctx context.Context, req SendRequest) error {
	return s.attempt(ctx, "sms", req.Recipient, req)
}

func (s *SimulatedSender) SendEmail(ctx context.Context, req SendRequest) error {
	return s.attempt(ctx, "email", req.Recipient, req)
}

func (s *SimulatedSender) SendApp(ctx context.Context, req SendRequest) error {
	return s.attempt(ctx, "app", fmt.Sprintf("customer-%d", req.CustomerID), req)
}

// attempt retries a simulated gateway call up to maxSendAttempts times.
func (s *SimulatedSender) attempt(ctx context.Context, channel, target string, req SendRequest) error {
	var lastErr error
	for i := 1; i <= maxSendAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.sleepLatency()
		s.logger.InfoContext(ctx, "Simulated notification send",
			"channel", channel,
			"attempt", i,
			"target", target,
			"customer_id", req.CustomerID,
			"message_len", len(req.Message),
		)
		if rand.Float64() >= s.failRate {
			return nil
		}
		lastErr = fmt.Errorf("simulated %s gateway failure for %s", channel, target)
		s.logger.WarnContext(ctx, "Simulated send attempt failed", "channel", channel, "attempt", i, "target", target)
	}
	return lastErr
}

func (s *SimulatedSender) sleepLatency() {
	if s.maxLatencyMs <= 0 {
		return
	}
	latency := s.minLatencyMs
	if s.maxLatencyMs > s.minLatencyMs {
		latency += rand.Intn(s.maxLatencyMs - s.minLatencyMs + 1)
	}
	time.Sleep(time.Duration(latency) * time.Millisecond)
}
