package parallel

import (
	"sync/atomic"
	"testing"
)

func TestForSequentialFallback(t *testing.T) {
	cfg := Config{Enabled: false}

	sum := 0
	For(10, func(i int) { sum += i }, cfg)

	if sum != 45 {
		t.Errorf("sum = %d, want 45", sum)
	}
}

func TestForParallelCoversRange(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}

	var visited [1000]int32
	For(len(visited), func(i int) {
		atomic.AddInt32(&visited[i], 1)
	}, cfg)

	for i, v := range visited {
		if v != 1 {
			t.Fatalf("index %d visited %d times", i, v)
		}
	}
}

func TestForBatchIndices(t *testing.T) {
	cfg := Config{Enabled: false}

	var got [][2]int
	ForBatch(2, 3, func(b, c int) {
		got = append(got, [2]int{b, c})
	}, cfg)

	want := [][2]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}
	if len(got) != len(want) {
		t.Fatalf("got %d pairs, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pair %d = %v, want %v", i, got[i], want[i])
		}
	}
}
