package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/glucose-watch-service/pkg/cgm"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
	"liyu1981.xyz/glucose-watch-service/pkg/models"
	_ "liyu1981.xyz/glucose-watch-service/pkg/testing"
)

func TestGoWithCancelWaitsForReturn(t *testing.T) {
	var finished atomic.Bool
	started := make(chan struct{})

	stop := goWithCancel(context.Background(), func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
	})

	<-started
	stop()
	assert.True(t, finished.Load())

	// second stop is a no-op
	stop()
}

// slowAthletes keeps a poll cycle busy until released.
type slowAthletes struct {
	started chan struct{}
	release chan struct{}
	done    atomic.Bool
}

func (s *slowAthletes) GetAthlete(ctx context.Context) (*models.User, error) {
	select {
	case s.started <- struct{}{}:
	default:
	}
	<-s.release
	s.done.Store(true)
	return nil, nil
}

func TestStopPollerWaitsForRunningCycle(t *testing.T) {
	common.SetTestLoggerNop()

	athletes := &slowAthletes{started: make(chan struct{}, 1), release: make(chan struct{})}
	poller := cgm.NewPoller(nil, nil, nil, athletes)

	stop := goWithCancel(context.Background(), poller.Run)

	select {
	case <-athletes.started:
	case <-time.After(time.Second):
		t.Fatal("poll cycle did not start")
	}

	stopped := make(chan struct{})
	go func() {
		stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("stop returned while a cycle was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(athletes.release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("stop did not return after the cycle finished")
	}
	require.True(t, athletes.done.Load())
}
