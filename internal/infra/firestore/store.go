package firestore

import (
	"context"
	"errors"
	"log/slog"

	"course-enrollment/internal/infra"
	"course-enrollment/internal/usecase/shared"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const maxTransactionAttempts = 5

// Store implements shared.UnitOfWork on Cloud Firestore. Firestore retries
// contended transactions itself, re-running fn from the start.
type Store struct {
	client *firestore.Client
	logger *slog.Logger
}

func NewStore(client *firestore.Client, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		logger: logger,
	}
}

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, ftx *firestore.Transaction) error {
		return fn(ctx, &fsTx{client: s.client, tx: ftx, logger: s.logger})
	}, firestore.MaxAttempts(maxTransactionAttempts))
	if err == nil {
		return nil
	}

	var repoErr infra.RepositoryError
	if errors.As(err, &repoErr) {
		return err
	}
	if status.Code(err) == codes.AlreadyExists {
		return infra.WrapRepoErr(s.logger, infra.KindDuplicateKey, "payment reference already recorded", err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return infra.WrapRepoErr(s.logger, infra.KindDBFailure, "firestore transaction failed", err)
}

func (s *Store) Reads() shared.CommandReads {
	return &docReads{
		get: func(ctx context.Context, ref *firestore.DocumentRef) (*firestore.DocumentSnapshot, error) {
			return ref.Get(ctx)
		},
		client: s.client,
		logger: s.logger,
	}
}

type fsTx struct {
	client *firestore.Client
	tx     *firestore.Transaction
	logger *slog.Logger
}

func (t *fsTx) Reads() shared.CommandReads {
	return &docReads{
		get: func(_ context.Context, ref *firestore.DocumentRef) (*firestore.DocumentSnapshot, error) {
			return t.tx.Get(ref)
		},
		client: t.client,
		logger: t.logger,
	}
}

func (t *fsTx) Enrollments() shared.EnrollmentRepository {
	return &enrollmentWriter{client: t.client, tx: t.tx, logger: t.logger}
}

func (t *fsTx) Earnings() shared.EarningsRepository {
	return &earningsWriter{client: t.client, tx: t.tx, logger: t.logger}
}

func (t *fsTx) Users() shared.UserProfileRepository {
	return &userWriter{client: t.client, tx: t.tx, logger: t.logger}
}

func (t *fsTx) Events() shared.EventRepository {
	return &eventWriter{client: t.client, tx: t.tx, logger: t.logger}
}
