package jobs

import (
	"context"

	"github.com/sirupsen/logrus"
)

type OrderRepairer interface {
	RepairOrder(ctx context.Context, userID string) (int, error)
}

// OrderRepairTask renumbers siblings left with duplicate orders, for
// example after a drop that only partially reached the database.
type OrderRepairTask struct {
	users    UserLister
	repairer OrderRepairer
	cron     string
}

func NewOrderRepairTask(schedule string, users UserLister, repairer OrderRepairer) *OrderRepairTask {
	return &OrderRepairTask{
		users:    users,
		repairer: repairer,
		cron:     schedule,
	}
}

func (o *OrderRepairTask) Name() string {
	return "order_repair"
}

func (o *OrderRepairTask) Schedule() string {
	return o.cron
}

func (o *OrderRepairTask) Run() {
	ctx := context.Background()
	userIDs, err := o.users.ListUserIDs(ctx)
	if err != nil {
		logrus.Errorf("order repair: failed to list users: %v", err)
		return
	}

	total := 0
	for _, userID := range userIDs {
		updated, err := o.repairer.RepairOrder(ctx, userID)
		if err != nil {
			logrus.Errorf("order repair: user %s: %v", userID, err)
			continue
		}
		total += updated
	}

	if total > 0 {
		logrus.Infof("order repair: renumbered %d documents", total)
	}
}
