package utils

import (
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/aestheticclinic/clinic-backend/internal/service"
)

// StartReminderScheduler publishes reminder events for tomorrow's
// confirmed appointments every morning at 08:00. Blocks forever; run it
// in its own goroutine.
func StartReminderScheduler(bookings service.BookingService, logger *logrus.Logger) {
	scheduler := cron.New()
	_, err := scheduler.AddFunc("0 8 * * *", bookings.SendDailyReminders)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"Function": "StartReminderScheduler",
			"Error":    err,
		}).Fatal("Failed to schedule reminder job")
	}
	scheduler.Start()

	select {}
}
