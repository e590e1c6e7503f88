package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMock_SetAndAdvance(t *testing.T) {
	clk := NewMock(time.Time{})
	start := clk.Now()
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)

	clk.Advance(10 * time.Second)
	require.Equal(t, 10*time.Second, Since(clk, start))

	ts := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	clk.Set(ts)
	require.Equal(t, ts, clk.Now())
}

func TestMock_Concurrent(t *testing.T) {
	clk := NewMock(time.Time{})
	start := clk.Now()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				clk.Advance(time.Millisecond)
				_ = clk.Now()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 800*time.Millisecond, Since(clk, start))
}

func TestReal(t *testing.T) {
	var clk Clock = Real{}
	before := time.Now()
	got := clk.Now()
	after := time.Now()

	require.False(t, got.Before(before))
	require.False(t, got.After(after))
}
