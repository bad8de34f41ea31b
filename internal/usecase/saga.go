package usecase

import (
	"context"

	"go.uber.org/zap"
)

// SagaStep pairs an action with its compensating action. Compensation is
// best effort: there is no atomicity against the underlying store, only an
// explicit "try to undo, then propagate" convention.
type SagaStep struct {
	Name string
	Run  func(ctx context.Context) error
	// Compensate undoes Run. Optional; steps with no side effects leave it
	// nil.
	Compensate func(ctx context.Context) error
}

// Saga executes steps in order. When a step fails, the compensations of all
// previously completed steps run in reverse order and the original error is
// returned unchanged. A failing compensation is logged and never masks the
// step error.
type Saga struct {
	logger *zap.Logger
	steps  []SagaStep
}

// NewSaga creates an empty saga.
func NewSaga(logger *zap.Logger) *Saga {
	return &Saga{logger: logger}
}

// AddStep appends a step.
func (s *Saga) AddStep(step SagaStep) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs the saga.
func (s *Saga) Execute(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.Run(ctx); err != nil {
			s.logger.Error("saga step failed, compensating",
				zap.String("step", step.Name),
				zap.Int("completed_steps", i),
				zap.Error(err))
			s.compensate(ctx, i-1)
			return err
		}
	}
	return nil
}

func (s *Saga) compensate(ctx context.Context, from int) {
	for i := from; i >= 0; i-- {
		step := s.steps[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.logger.Error("saga compensation failed",
				zap.String("step", step.Name),
				zap.Error(err))
		}
	}
}
