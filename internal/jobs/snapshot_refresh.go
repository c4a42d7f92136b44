package jobs

import (
	"context"

	"github.com/emrgen/noteforest/internal/cache"
	"github.com/sirupsen/logrus"
)

type UserLister interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

type Refresher interface {
	Refresh(ctx context.Context, userID string) (*cache.Snapshot, error)
}

// SnapshotRefreshTask reloads the snapshot of every user, so changes made
// to the database behind the service still reach the cache and the subscribers.
type SnapshotRefreshTask struct {
	users     UserLister
	refresher Refresher
	cron      string
}

func NewSnapshotRefreshTask(schedule string, users UserLister, refresher Refresher) *SnapshotRefreshTask {
	return &SnapshotRefreshTask{
		users:     users,
		refresher: refresher,
		cron:      schedule,
	}
}

func (c *SnapshotRefreshTask) Name() string {
	return "snapshot_refresh"
}

func (c *SnapshotRefreshTask) Schedule() string {
	return c.cron
}

func (c *SnapshotRefreshTask) Run() {
	ctx := context.Background()
	userIDs, err := c.users.ListUserIDs(ctx)
	if err != nil {
		logrus.Errorf("snapshot refresh: failed to list users: %v", err)
		return
	}

	for _, userID := range userIDs {
		if _, err := c.refresher.Refresh(ctx, userID); err != nil {
			logrus.Errorf("snapshot refresh: user %s: %v", userID, err)
		}
	}
}
