package services

import "time"

func SetClock(h *CommandHandler, now func() time.Time) {
	h.now = now
}
