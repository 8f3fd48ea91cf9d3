package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/yigit/enrollhub/internal/app/integrity"
	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/app/repositories"
	"github.com/yigit/enrollhub/internal/pkg/apperrors"
	"github.com/yigit/enrollhub/internal/pkg/dberrors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// parentStore is the part of StudentStore and CourseStore used to remove a row.
type parentStore interface {
	LockForDelete(ctx context.Context, id int64) (int, error)
	Delete(ctx context.Context, id int64) error
}

// parentRemover deletes students and courses under the integrity guard.
type parentRemover struct {
	store  repositories.Store
	guard  *integrity.Guard
	logger zerolog.Logger
	tracer trace.Tracer
	table  func(repositories.Store) parentStore

	publisher Publisher
}

// remove locks the parent row, counts its enrollments, asks the guard and
// deletes, all in one transaction. A foreign key rejection from the store
// yields the same denial as the guard.
func (r *parentRemover) remove(ctx context.Context, ref integrity.EntityRef) (err error) {
	ctx, span := r.tracer.Start(ctx, string(ref.Kind)+".delete", trace.WithAttributes(attribute.Int64(string(ref.Kind)+".id", ref.ID)))
	defer func() {
		recordSpanError(span, err)
		span.End()
	}()

	err = r.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		table := r.table(tx)
		count, err := table.LockForDelete(ctx, ref.ID)
		if err != nil {
			return err
		}
		if decision := r.guard.Evaluate(ref, count); !decision.Allowed {
			return r.guard.Denial(ref, decision)
		}
		return table.Delete(ctx, ref.ID)
	})

	if errors.Is(err, dberrors.ErrForeignKeyViolation) {
		err = r.guard.Denial(ref, integrity.Decision{})
	}
	if err != nil {
		err = storeError(err)
		if apperrors.Is(err, apperrors.ErrIntegrityDenied, apperrors.ErrResourceNotFound) {
			r.logger.Info().Err(err).Stringer("ref", ref).Msg("Delete refused")
		} else {
			r.logger.Error().Err(err).Stringer("ref", ref).Msg("Delete failed")
		}
		return err
	}

	r.logger.Info().Stringer("ref", ref).Msg("Deleted")
	r.publisher.Publish(models.ChangeEvent{Entity: string(ref.Kind), Kind: models.ChangeDeleted, ID: ref.ID, At: changeAt()})
	return nil
}
