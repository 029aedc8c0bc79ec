package nats

import (
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
	"github.com/kirillkom/trial-balance-analyzer/internal/infrastructure/resilience"
)

func classifyNATSError(err error) resilience.Outcome {
	if err == nil {
		return resilience.Outcome{}
	}
	if out, ok := resilience.ContextOutcome(err); ok {
		return out
	}
	if errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrConnectionReconnecting) ||
		errors.Is(err, nats.ErrDisconnected) {
		return resilience.Transient()
	}
	return resilience.Final(err)
}

func wrapTemporaryIfNeeded(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyNATSError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, "nats publish", err)
	}
	return err
}
