// services/scheduler.go
package services

import (
	"log"
	"time"

	"daily-guess-system/game"

	"github.com/go-co-op/gocron/v2"
)

// StartDayScheduler pre-generates each variant's daily target shortly after
// the UTC rollover, so the first player of the day does not pay the creation
// cost. Lazy creation in GetOrCreateDay still covers a missed run.
func (s *RoundService) StartDayScheduler() {
	sched, _ := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))),
		gocron.NewTask(func() {
			today := s.Today()
			for _, desc := range game.All() {
				day, err := s.GetOrCreateDay(desc, today)
				if err != nil {
					log.Printf("[Scheduler] Failed to generate %s target for %s: %v", desc.Variant, today, err)
					continue
				}
				log.Printf("✅ Daily target ready: %s %s → %s", desc.Variant, today, day.Entity.Name)
			}
		}),
	)
}
