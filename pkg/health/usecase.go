package health

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Checker represents a dependency health check.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// ReadinessUseCase describes readiness verification.
type ReadinessUseCase interface {
	Ready(ctx context.Context) error
}

// Budget bounds the whole readiness probe.
const Budget = time.Second

type service struct {
	checkers []Checker
}

// NewService aggregates dependency checkers. Nil checkers are skipped so
// optional dependencies can be passed unconditionally.
func NewService(checkers ...Checker) ReadinessUseCase {
	s := &service{}
	for _, ch := range checkers {
		if ch != nil {
			s.checkers = append(s.checkers, ch)
		}
	}
	return s
}

// Ready runs every checker concurrently and reports the first failure by name.
func (s *service) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, Budget)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	for _, ch := range s.checkers {
		g.Go(func() error {
			if err := ch.Check(gctx); err != nil {
				return fmt.Errorf("%s: %w", ch.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
