package random

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banditopt/gmab/internal/search"
)

func sumAbs(x []int64) (float64, error) {
	sum := 0.0
	for _, v := range x {
		if v < 0 {
			v = -v
		}
		sum += float64(v)
	}
	return sum, nil
}

func TestRunSpendsExactBudget(t *testing.T) {
	const budget = 64

	calls := 0
	counted := func(x []int64) (float64, error) {
		calls++
		return sumAbs(x)
	}

	res, err := New(5).Run(context.Background(), counted, [][2]int64{{-4, 4}}, budget)
	require.NoError(t, err)
	assert.Equal(t, budget, calls)
	assert.Equal(t, budget, res.Evaluations)
}

func TestRunKeepsBestDraw(t *testing.T) {
	bounds := [][2]int64{{-4, 4}, {-4, 4}}

	res, err := New(11).Run(context.Background(), sumAbs, bounds, 500)
	require.NoError(t, err)

	require.Len(t, res.Point, 2)
	for i, v := range res.Point {
		assert.GreaterOrEqual(t, v, bounds[i][0])
		assert.LessOrEqual(t, v, bounds[i][1])
	}
	// 500 draws over 81 points reach the origin essentially always.
	assert.Equal(t, 0.0, res.Score)
}

func TestRunPropagatesObjectiveError(t *testing.T) {
	boom := errors.New("objective failed")
	failing := func(x []int64) (float64, error) { return 0, boom }

	res, err := New(1).Run(context.Background(), failing, [][2]int64{{0, 1}}, 10)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, res)
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(1).Run(ctx, sumAbs, [][2]int64{{0, 1}}, 10)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunRejectsBadInputs(t *testing.T) {
	_, err := New(1).Run(context.Background(), sumAbs, nil, 10)
	assert.ErrorIs(t, err, search.ErrNoBounds)

	_, err = New(1).Run(context.Background(), sumAbs, [][2]int64{{2, 2}}, 10)
	assert.ErrorIs(t, err, search.ErrInvalidBounds)

	_, err = New(1).Run(context.Background(), sumAbs, [][2]int64{{0, 1}}, -3)
	assert.ErrorIs(t, err, search.ErrNonPositiveBudget)
}
