package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/tiendapos/internal/calculator"
	"github.com/mmynk/tiendapos/internal/middleware"
	"github.com/mmynk/tiendapos/internal/sequence"
	"github.com/mmynk/tiendapos/internal/storage"
)

var (
	errMissingSession = errors.New("session has no business")
	errEmptyCart      = errors.New("cart is empty")
)

// session returns the business and user of the authenticated caller.
func session(ctx context.Context) (businessID, userID string, err error) {
	businessID = middleware.GetBusinessID(ctx)
	userID = middleware.GetUserID(ctx)
	if businessID == "" || userID == "" {
		return "", "", connect.NewError(connect.CodeUnauthenticated, errMissingSession)
	}
	return businessID, userID, nil
}

// toConnectError maps storage and domain errors onto Connect codes.
func toConnectError(err error) error {
	var connectErr *connect.Error
	var invalid *calculator.InvalidInputError
	var short *calculator.InsufficientPaymentError
	var exhausted *sequence.SequenceExhaustedError

	switch {
	case errors.As(err, &connectErr):
		return err
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.As(err, &invalid):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.As(err, &short):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrConflict), errors.Is(err, storage.ErrDuplicateCode):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, storage.ErrInsufficientStock), errors.Is(err, storage.ErrAlreadyVoided):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.As(err, &exhausted):
		slog.Error("Sequence exhausted", "attempts", exhausted.Attempts, "error", err)
		return connect.NewError(connect.CodeInternal, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// asCollision tells the allocator to retry when storage rejected the code.
func asCollision(err error) error {
	if errors.Is(err, storage.ErrDuplicateCode) {
		return errors.Join(sequence.ErrCollision, err)
	}
	return err
}
