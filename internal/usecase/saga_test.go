package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSaga_AllStepsSucceed(t *testing.T) {
	var order []string

	saga := NewSaga(zap.NewNop())
	saga.AddStep(SagaStep{
		Name: "first",
		Run: func(ctx context.Context) error {
			order = append(order, "first")
			return nil
		},
		Compensate: func(ctx context.Context) error {
			order = append(order, "undo first")
			return nil
		},
	})
	saga.AddStep(SagaStep{
		Name: "second",
		Run: func(ctx context.Context) error {
			order = append(order, "second")
			return nil
		},
	})

	err := saga.Execute(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestSaga_FailureCompensatesInReverseOrder(t *testing.T) {
	var order []string
	boom := errors.New("step three failed")

	saga := NewSaga(zap.NewNop())
	saga.AddStep(SagaStep{
		Name: "one",
		Run: func(ctx context.Context) error {
			order = append(order, "one")
			return nil
		},
		Compensate: func(ctx context.Context) error {
			order = append(order, "undo one")
			return nil
		},
	})
	saga.AddStep(SagaStep{
		Name: "two",
		Run: func(ctx context.Context) error {
			order = append(order, "two")
			return nil
		},
		Compensate: func(ctx context.Context) error {
			order = append(order, "undo two")
			return nil
		},
	})
	saga.AddStep(SagaStep{
		Name: "three",
		Run: func(ctx context.Context) error {
			return boom
		},
		Compensate: func(ctx context.Context) error {
			order = append(order, "undo three")
			return nil
		},
	})

	err := saga.Execute(context.Background())
	assert.ErrorIs(t, err, boom)
	// The failing step is not compensated, only the completed ones.
	assert.Equal(t, []string{"one", "two", "undo two", "undo one"}, order)
}

func TestSaga_CompensationFailureDoesNotMaskStepError(t *testing.T) {
	boom := errors.New("second failed")

	saga := NewSaga(zap.NewNop())
	saga.AddStep(SagaStep{
		Name: "first",
		Run: func(ctx context.Context) error {
			return nil
		},
		Compensate: func(ctx context.Context) error {
			return errors.New("compensation also failed")
		},
	})
	saga.AddStep(SagaStep{
		Name: "second",
		Run: func(ctx context.Context) error {
			return boom
		},
	})

	err := saga.Execute(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestSaga_NilCompensationSkipped(t *testing.T) {
	var compensated bool
	boom := errors.New("last failed")

	saga := NewSaga(zap.NewNop())
	saga.AddStep(SagaStep{
		Name: "no undo",
		Run: func(ctx context.Context) error {
			return nil
		},
	})
	saga.AddStep(SagaStep{
		Name: "with undo",
		Run: func(ctx context.Context) error {
			return nil
		},
		Compensate: func(ctx context.Context) error {
			compensated = true
			return nil
		},
	})
	saga.AddStep(SagaStep{
		Name: "failing",
		Run: func(ctx context.Context) error {
			return boom
		},
	})

	err := saga.Execute(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, compensated)
}
