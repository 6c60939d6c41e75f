package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/geolex/internal/common"
)

func TestStart_DisabledIsNoop(t *testing.T) {
	var runs atomic.Int32
	s := New(&common.SchedulerConfig{Enabled: false}, func(context.Context) error {
		runs.Add(1)
		return nil
	}, arbor.NewLogger())

	require.NoError(t, s.Start())
	assert.Equal(t, int32(0), runs.Load())
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := New(&common.SchedulerConfig{Enabled: true, Schedule: "not a cron expr"},
		func(context.Context) error { return nil }, arbor.NewLogger())

	assert.Error(t, s.Start())
}

func TestTrigger_RunsOnSchedule(t *testing.T) {
	var runs atomic.Int32
	s := New(&common.SchedulerConfig{Enabled: true, Schedule: "* * * * * *"}, func(context.Context) error {
		runs.Add(1)
		return nil
	}, arbor.NewLogger())

	require.NoError(t, s.Start())
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	assert.Greater(t, runs.Load(), int32(0))
}

func TestTrigger_SkipsOverlappingRuns(t *testing.T) {
	var runs atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	s := New(&common.SchedulerConfig{Enabled: true, Schedule: "* * * * * *"}, func(context.Context) error {
		runs.Add(1)
		close(started)
		<-release
		return nil
	}, arbor.NewLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.trigger()
	}()
	<-started

	// While the first run holds the lock, further triggers are dropped
	s.trigger()
	s.trigger()
	assert.Equal(t, int32(1), runs.Load())

	close(release)
	wg.Wait()
}
