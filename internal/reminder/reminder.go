// Package reminder runs the daily job that emails assistants the day before
// an event date they are registered for.
package reminder

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/udlaevents/eventpass/internal/clock"
	"github.com/udlaevents/eventpass/internal/mailer"
	"github.com/udlaevents/eventpass/internal/models"
)

type Job struct {
	db     *gorm.DB
	sender mailer.Sender
	clock  clock.Clock
}

func NewJob(db *gorm.DB, sender mailer.Sender, clk clock.Clock) *Job {
	return &Job{db: db, sender: sender, clock: clk}
}

// Start schedules the job every day at 08:00 and returns the cron runner so
// the caller can stop it on shutdown.
func (j *Job) Start() (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(clock.Zone()))
	if _, err := c.AddFunc("0 8 * * *", j.Run); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

// Run sends a reminder to every assistant registered for an event date that
// falls on tomorrow's civil day.
func (j *Job) Run() {
	now := j.clock.Now()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	dayAfter := tomorrow.AddDate(0, 0, 1)

	var eventDates []models.EventDate
	err := j.db.Preload("Event").
		Where("day_date >= ? AND day_date < ?", tomorrow, dayAfter).
		Find(&eventDates).Error
	if err != nil {
		log.Printf("reminder: failed to load event dates: %v", err)
		return
	}

	for _, eventDate := range eventDates {
		if eventDate.Event == nil || !eventDate.Event.IsPublished || eventDate.Event.IsCancelled {
			continue
		}

		var users []models.User
		err := j.db.
			Joins("JOIN registrations ON registrations.assistant_id = users.id").
			Where("registrations.event_id = ?", eventDate.EventID).
			Distinct().
			Find(&users).Error
		if err != nil {
			log.Printf("reminder: failed to load registrations for event %s: %v", eventDate.EventID, err)
			continue
		}

		for _, user := range users {
			if err := j.sender.SendEventReminder(user, *eventDate.Event, eventDate); err != nil {
				log.Printf("reminder: failed to email %s: %v", user.Email, err)
			}
		}
	}
}
