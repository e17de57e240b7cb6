package domain

import "time"

// Defaults
const (
	DefaultResourceID      = "default"
	DefaultBusinessStart   = "08:00"
	DefaultBusinessEnd     = "17:00"
	DefaultBusinessTZ      = "Europe/Paris"
	DefaultSinkTimeout     = 10 * time.Second
	DuplicateSweepWindow   = 24 * time.Hour
	InstantCheckWidth      = time.Minute
)

// Business validation constants
const (
	MinDurationMinutes    = 5
	MaxDurationMinutes    = 480 // 8 hours
	MaxNoticeMinutes      = 10080
	MaxNameLength         = 200
	MaxNotesLength        = 500
	MaxAddressLength      = 300
	MaxEmailLength        = 254
	DefaultPhoneRegion    = "FR"
	MaxReconcileBatchSize = 500
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
