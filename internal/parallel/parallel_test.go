package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, WithWorkers(8))

	assert.Equal(t, int64(n), counter)
}

func TestFor_VisitsEachIndexOnce(t *testing.T) {
	n := 257
	hits := make([]int32, n)

	For(n, func(i int) {
		atomic.AddInt32(&hits[i], 1)
	}, WithWorkers(3))

	for i, h := range hits {
		if h != 1 {
			t.Errorf("index %d visited %d times", i, h)
		}
	}
}

func TestForBatch(t *testing.T) {
	batch, rows := 4, 8
	results := make([][]bool, batch)
	for b := range results {
		results[b] = make([]bool, rows)
	}

	ForBatch(batch, rows, func(b, r int) {
		results[b][r] = true
	}, DefaultConfig())

	for b := 0; b < batch; b++ {
		for r := 0; r < rows; r++ {
			if !results[b][r] {
				t.Errorf("Missing result at [%d][%d]", b, r)
			}
		}
	}
}

func TestForBatch_ZeroRows(t *testing.T) {
	called := false
	ForBatch(3, 0, func(_, _ int) { called = true }, DefaultConfig())
	assert.False(t, called)
}

func TestFor_Sequential(t *testing.T) {
	var order []int
	For(5, func(i int) {
		order = append(order, i)
	}, Sequential())

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestWithWorkers(t *testing.T) {
	assert.False(t, WithWorkers(1).Enabled)
	assert.False(t, WithWorkers(0).Enabled)
	assert.Equal(t, 1, WithWorkers(0).NumWorkers)
	assert.True(t, WithWorkers(4).Enabled)
}
