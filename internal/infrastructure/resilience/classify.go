package resilience

import (
	"context"
	"errors"
	"net/http"

	"github.com/kirillkom/medintake/internal/core/domain"
)

// classifyResult attaches the domain kind the use cases branch on.
// A provider that rejects the credentials or whose breaker is open is
// ErrProviderUnavailable; other open breakers and retryable failures are
// ErrTemporary. Cancellation and permanent errors are returned unchanged.
func classifyResult(target Target, operation string, err error, classify ErrorClassifier) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if domain.IsKind(err, domain.ErrTemporary) || domain.IsKind(err, domain.ErrProviderUnavailable) {
		return err
	}

	label := string(target) + " " + operation
	if target == TargetProvider && (IsCircuitOpen(err) || rejectedCredentials(err)) {
		return domain.WrapError(domain.ErrProviderUnavailable, label, err)
	}
	if IsCircuitOpen(err) || classify(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, label, err)
	}
	return err
}

func rejectedCredentials(err error) bool {
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden
}
