package utils

import (
	"context"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestJitterBounds(t *testing.T) {
	is := is.New(t)

	for range 1000 {
		d := Jitter(100)
		is.True(d >= 40*time.Millisecond)
		is.True(d <= 250*time.Millisecond)
	}
	is.Equal(Jitter(0), time.Duration(0))
	is.Equal(Jitter(-5), time.Duration(0))
}

func TestSleepReturnsOnCancel(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, 10_000)

	is.Equal(err, context.Canceled)
	is.True(time.Since(start) < time.Second)
}

func TestSleepWithoutDelay(t *testing.T) {
	is := is.New(t)
	is.NoErr(Sleep(context.Background(), 0))
}
