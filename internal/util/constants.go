package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	// DefaultQueueSize is the "cargar 5" batch target used when a reviewer
	// does not ask for a specific queue size.
	DefaultQueueSize = 5

	// MaxQueueSize caps how many pending items a single reviewer may hold.
	MaxQueueSize = 50

	// DefaultFollowUpHours is the follow-up horizon applied when a reviewer
	// schedules a retry without an explicit delay.
	DefaultFollowUpHours = 24
)
