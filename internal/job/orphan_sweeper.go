package job

import (
	"context"
	"time"

	"github.com/emrgen/noteforest/internal/cache"
	"github.com/emrgen/noteforest/internal/store"
	"github.com/sirupsen/logrus"
)

type Refresher interface {
	Refresh(ctx context.Context, userID string) (*cache.Snapshot, error)
}

// OrphanSweeper finishes interrupted cascade deletes: a document whose
// parent row is gone is deleted together with its subtree.
type OrphanSweeper struct {
	store     store.Store
	refresher Refresher
	interval  time.Duration
	done      chan struct{}
}

// NewOrphanSweeper creates a new OrphanSweeper instance.
func NewOrphanSweeper(store store.Store, refresher Refresher, interval time.Duration) *OrphanSweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	return &OrphanSweeper{
		store:     store,
		refresher: refresher,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

func (c *OrphanSweeper) Stop() {
	close(c.done)
}

func (c *OrphanSweeper) Run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if _, err := c.Sweep(context.Background()); err != nil {
				logrus.Errorf("orphan sweep failed: %v", err)
			}
		}
	}
}

// Sweep deletes the orphaned subtrees of every user and returns the number
// of deleted documents.
func (c *OrphanSweeper) Sweep(ctx context.Context) (int, error) {
	userIDs, err := c.store.ListUserIDs(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, userID := range userIDs {
		orphans, err := c.store.ListOrphans(ctx, userID)
		if err != nil {
			return total, err
		}
		if len(orphans) == 0 {
			continue
		}

		for _, orphan := range orphans {
			deleted, err := c.store.DeleteCascade(ctx, userID, orphan.ID)
			if err != nil {
				return total, err
			}
			total += len(deleted)
		}

		logrus.Infof("swept %d orphaned documents of %s", len(orphans), userID)
		if _, err := c.refresher.Refresh(ctx, userID); err != nil {
			logrus.Warnf("failed to refresh %s after sweep: %v", userID, err)
		}
	}

	return total, nil
}
