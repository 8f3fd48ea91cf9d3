package services

import (
	"fmt"

	"github.com/yigit/enrollhub/internal/pkg/apperrors"
	"github.com/yigit/enrollhub/internal/pkg/dberrors"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// storeError maps store failures that callers handle as a class. Anything
// else is passed through unchanged.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	if dberrors.IsUnavailable(err) {
		return fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}
	return err
}

// recordSpanError marks the span failed for unexpected errors only. Domain
// outcomes such as validation failures are normal results.
func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	if apperrors.Is(err, apperrors.ErrValidationFailed,
		apperrors.ErrResourceNotFound,
		apperrors.ErrIntegrityDenied,
		apperrors.ErrStaleState,
	) {
		span.SetAttributes(outcomeAttr(err))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
