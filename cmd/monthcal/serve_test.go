package main

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerSkipsOverlappingRuns(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var runs atomic.Int32

	c, runNow, err := newScheduler(time.UTC, "0 * * * *", func() {
		runs.Add(1)
		started <- struct{}{}
		<-release
	})
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)

	done := make(chan struct{})
	go func() {
		runNow()
		close(done)
	}()
	<-started

	// A tick during the slow run returns without running the job.
	c.Entries()[0].WrappedJob.Run()
	close(release)
	<-done

	assert.Equal(t, int32(1), runs.Load())

	// Once the first run finished the next one goes through.
	runNow()
	assert.Equal(t, int32(2), runs.Load())
}

func TestSchedulerRecoversPanics(t *testing.T) {
	_, runNow, err := newScheduler(time.UTC, "@hourly", func() { panic("boom") })
	require.NoError(t, err)
	assert.NotPanics(t, runNow)
	// The skip guard is released after a panic.
	assert.NotPanics(t, runNow)
}

func TestSchedulerInvalidSpec(t *testing.T) {
	_, _, err := newScheduler(time.UTC, "every hour", func() {})
	assert.ErrorContains(t, err, "invalid refresh schedule")
}
