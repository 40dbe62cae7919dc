package model

import "time"

type LedgerType string

const (
	LedgerReserve LedgerType = "RESERVE"
	LedgerRelease LedgerType = "RELEASE"
	// ADJUST records an owner capacity edit; it has no booking and its
	// delta carries its own sign.
	LedgerAdjust LedgerType = "ADJUST"
)

// Sign is the direction a booking entry moves the available-room pool.
func (t LedgerType) Sign() int {
	switch t {
	case LedgerReserve:
		return -1
	case LedgerRelease:
		return 1
	}
	return 0
}

type LedgerEntry struct {
	ID             int64      `json:"id"`
	HostelID       int64      `json:"hostel_id"`
	BookingID      int64      `json:"booking_id,omitempty"`
	EntryType      LedgerType `json:"entry_type"`
	Delta          int        `json:"delta"`
	AvailableAfter int        `json:"available_after"`
	CreatedAt      time.Time  `json:"created_at"`
}
