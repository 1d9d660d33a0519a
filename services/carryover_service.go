package services

import (
	"log"
	"time"

	"github.com/marinelli-collision/bodyshop-api/config"
	"github.com/marinelli-collision/bodyshop-api/models"
)

// Stages the carryover sweep treats as terminal. The state machine only
// emits closed, but legacy rows may still carry completed or cancelled.
var carryoverTerminalStatuses = []string{"closed", "completed", "cancelled"}

// RunCarryover marks repair orders whose billing month has rolled over and
// that are still open, so revenue reporting can separate current work from
// carried-over work. One bulk update per shop keeps the blast radius small;
// rows already marked are skipped, so repeated runs converge to a no-op.
// Returns the total number of orders marked.
func RunCarryover(now time.Time) (int64, error) {
	db := config.GetDB()
	currentMonth := now.Format("2006-01")

	var shopIDs []uint
	if err := db.Model(&models.Shop{}).Pluck("id", &shopIDs).Error; err != nil {
		return 0, err
	}

	var total int64
	for _, shopID := range shopIDs {
		res := db.Model(&models.RepairOrder{}).
			Where("shop_id = ?", shopID).
			Where("billing_month < ?", currentMonth).
			Where("status NOT IN ?", carryoverTerminalStatuses).
			Where("carried_over = ?", false).
			Updates(map[string]interface{}{
				"carried_over":   true,
				"revenue_period": models.RevenuePeriodPrevious,
			})
		if res.Error != nil {
			return total, res.Error
		}
		if res.RowsAffected > 0 {
			log.Printf("carryover: marked %d open repair orders for shop %d", res.RowsAffected, shopID)
		}
		total += res.RowsAffected
	}
	return total, nil
}

// StartCarryoverJob runs the sweep once immediately and then on a daily
// ticker. Startup never blocks on it: a database error is logged and the
// next tick tries again.
func StartCarryoverJob(interval time.Duration) chan struct{} {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	stop := make(chan struct{})

	go func() {
		if count, err := RunCarryover(time.Now()); err != nil {
			log.Printf("carryover sweep failed: %v", err)
		} else {
			log.Printf("carryover sweep complete, %d orders marked", count)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if count, err := RunCarryover(time.Now()); err != nil {
					log.Printf("carryover sweep failed: %v", err)
				} else if count > 0 {
					log.Printf("carryover sweep complete, %d orders marked", count)
				}
			case <-stop:
				return
			}
		}
	}()

	return stop
}
