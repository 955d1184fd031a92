package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrStatusConflict means the ticket's status changed between read and write.
	ErrStatusConflict = errors.New("ticket status changed concurrently")
	// ErrDuplicateEvent means an event with the same idempotency key was already appended.
	ErrDuplicateEvent = errors.New("event already recorded for idempotency key")
	// ErrDuplicateOrderCode means the generated order code is already taken.
	ErrDuplicateOrderCode = errors.New("order code already in use")
)

const (
	uniqueViolation = "23505"

	constraintEventIdempotency = "domain_events_idempotency_key"
	constraintOrderCode        = "order_groups_tenant_code_key"
)

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
}
