package sequence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DefaultMaxAttempts bounds numbered commit attempts before falling back to a timestamp code.
const DefaultMaxAttempts = 10

// ErrCollision is returned by a CommitFunc when the storage uniqueness
// constraint rejected the proposed code. Any other commit error aborts allocation.
var ErrCollision = errors.New("sequence: code already taken")

// SequenceExhaustedError reports that every numbered attempt collided and the
// timestamp fallback could not be committed either.
type SequenceExhaustedError struct {
	Attempts int
	Err      error
}

func (e *SequenceExhaustedError) Error() string {
	return fmt.Sprintf("sequence exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *SequenceExhaustedError) Unwrap() error {
	return e.Err
}

// ReadFunc returns the last committed value in the scope being allocated.
type ReadFunc func(ctx context.Context) (sql.NullInt64, error)

// CommitFunc persists the record carrying code under a uniqueness constraint.
type CommitFunc func(ctx context.Context, code Code) error

// Options configures an Allocator.
type Options struct {
	MaxAttempts int
	Clock       func() time.Time
}

// Allocator runs the propose, commit and retry loop. It keeps no per-scope state
// and is safe for concurrent use.
type Allocator struct {
	maxAttempts int
	clock       func() time.Time
}

// Allocation is the outcome of a successful Allocate call.
type Allocation struct {
	Code
	// Attempts counts commit calls, including the fallback commit.
	Attempts int
}

// NewAllocator returns an allocator with defaults applied to zero options.
func NewAllocator(opts Options) *Allocator {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Allocator{maxAttempts: maxAttempts, clock: clock}
}

// Allocate reads the last value, proposes Next and commits it. On ErrCollision
// it re-reads and tries again, up to the configured attempts, then commits a
// timestamp-suffixed fallback code. A full series goes straight to the fallback.
func (a *Allocator) Allocate(ctx context.Context, series Series, read ReadFunc, commit CommitFunc) (Allocation, error) {
	attempts := 0
	for attempts < a.maxAttempts {
		if err := ctx.Err(); err != nil {
			return Allocation{}, err
		}

		last, err := read(ctx)
		if err != nil {
			return Allocation{}, fmt.Errorf("failed to read last sequence value: %w", err)
		}

		code, err := Next(series, last)
		if err != nil {
			break
		}
		attempts++
		err = commit(ctx, code)
		if err == nil {
			return Allocation{Code: code, Attempts: attempts}, nil
		}
		if !errors.Is(err, ErrCollision) {
			return Allocation{}, err
		}
	}

	attempts++
	code := series.fallback(a.clock())
	if err := commit(ctx, code); err != nil {
		if errors.Is(err, ErrCollision) {
			return Allocation{}, &SequenceExhaustedError{Attempts: attempts, Err: err}
		}
		return Allocation{}, err
	}
	return Allocation{Code: code, Attempts: attempts}, nil
}
