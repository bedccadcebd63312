package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelizeCoversEveryIndexOnce(t *testing.T) {
	const n = 1000
	var hits [n]int32

	Parallelize(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})

	for i, h := range hits {
		assert.Equal(t, int32(1), h, "index %d", i)
	}
}

func TestParallelizeWithWorkers(t *testing.T) {
	var total int64
	ParallelizeWithWorkers(100, 3, func(lo, hi int) {
		atomic.AddInt64(&total, int64(hi-lo))
	})
	assert.Equal(t, int64(100), total)
}

func TestParallelizeWithThresholdRunsSerialBelow(t *testing.T) {
	var total int64
	ParallelizeWithThreshold(10, 1000, func(lo, hi int) {
		atomic.AddInt64(&total, int64(hi-lo))
	})
	assert.Equal(t, int64(10), total)
}

func TestParallelizeZeroItems(t *testing.T) {
	called := false
	Parallelize(0, func(lo, hi int) { called = true })
	assert.False(t, called)
}
