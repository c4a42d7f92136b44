package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/emrgen/noteforest/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingJob struct {
	runs    atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (b *blockingJob) Name() string     { return "blocking" }
func (b *blockingJob) Schedule() string { return "@every 1h" }
func (b *blockingJob) Run() {
	b.runs.Add(1)
	b.started <- struct{}{}
	<-b.release
}

func TestTaskExecutor_SkipsRunningJob(t *testing.T) {
	job := &blockingJob{started: make(chan struct{}, 1), release: make(chan struct{})}
	executor := NewTaskExecutor(job)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.True(t, executor.runOnce(job))
	}()

	<-job.started
	assert.False(t, executor.runOnce(job))

	close(job.release)
	wg.Wait()
	assert.Equal(t, int32(1), job.runs.Load())

	// free again once finished
	job.release = make(chan struct{})
	close(job.release)
	assert.True(t, executor.runOnce(job))
	assert.Equal(t, int32(2), job.runs.Load())
}

func TestTaskExecutor_InvalidSchedule(t *testing.T) {
	executor := NewTaskExecutor(NewOrderRepairTask("not a schedule", fakeUsers{}, &fakeRepairer{}))
	assert.Error(t, executor.Run())
}

func TestTaskExecutor_RunStop(t *testing.T) {
	executor := NewTaskExecutor(NewOrderRepairTask("@every 1h", fakeUsers{}, &fakeRepairer{}))
	require.NoError(t, executor.Run())
	executor.Stop()
}

type fakeUsers struct {
	ids []string
	err error
}

func (f fakeUsers) ListUserIDs(context.Context) ([]string, error) {
	return f.ids, f.err
}

type fakeRefresher struct {
	mu    sync.Mutex
	users []string
}

func (f *fakeRefresher) Refresh(_ context.Context, userID string) (*cache.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, userID)
	if userID == "broken" {
		return nil, errors.New("boom")
	}
	return cache.EmptySnapshot(), nil
}

type fakeRepairer struct {
	users []string
}

func (f *fakeRepairer) RepairOrder(_ context.Context, userID string) (int, error) {
	f.users = append(f.users, userID)
	return 1, nil
}

func TestSnapshotRefreshTask_Run(t *testing.T) {
	refresher := &fakeRefresher{}
	task := NewSnapshotRefreshTask("@every 1m", fakeUsers{ids: []string{"a", "broken", "b"}}, refresher)

	assert.Equal(t, "snapshot_refresh", task.Name())
	assert.Equal(t, "@every 1m", task.Schedule())

	task.Run()
	assert.Equal(t, []string{"a", "broken", "b"}, refresher.users)

	refresher.users = nil
	NewSnapshotRefreshTask("@every 1m", fakeUsers{err: errors.New("db down")}, refresher).Run()
	assert.Empty(t, refresher.users)
}

func TestOrderRepairTask_Run(t *testing.T) {
	repairer := &fakeRepairer{}
	task := NewOrderRepairTask("@every 1h", fakeUsers{ids: []string{"a", "b"}}, repairer)

	task.Run()
	assert.Equal(t, []string{"a", "b"}, repairer.users)
	assert.Equal(t, "order_repair", task.Name())
}

func TestTaskExecutor_RunsOnSchedule(t *testing.T) {
	refresher := &fakeRefresher{}
	executor := NewTaskExecutor(NewSnapshotRefreshTask("@every 1s", fakeUsers{ids: []string{"a"}}, refresher))
	require.NoError(t, executor.Run())
	defer executor.Stop()

	assert.Eventually(t, func() bool {
		refresher.mu.Lock()
		defer refresher.mu.Unlock()
		return len(refresher.users) > 0
	}, 3*time.Second, 50*time.Millisecond)
}
