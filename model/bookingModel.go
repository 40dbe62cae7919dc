package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

type BookingEvent string

const (
	EventConfirm  BookingEvent = "CONFIRM"
	EventCancel   BookingEvent = "CANCEL"
	EventComplete BookingEvent = "COMPLETE"
)

var ErrIllegalTransition = errors.New("illegal booking transition")

// bookingTransitions is the complete lifecycle table. A status with no
// entries is terminal; any (status, event) pair not listed is illegal.
var bookingTransitions = map[BookingStatus]map[BookingEvent]BookingStatus{
	BookingPending: {
		EventConfirm: BookingConfirmed,
		EventCancel:  BookingCancelled,
	},
	BookingConfirmed: {
		EventCancel:   BookingCancelled,
		EventComplete: BookingCompleted,
	},
	BookingCancelled: {},
	BookingCompleted: {},
}

// Next applies ev to s.
func (s BookingStatus) Next(ev BookingEvent) (BookingStatus, error) {
	next, ok := bookingTransitions[s][ev]
	if !ok {
		return s, fmt.Errorf("%w: %s from %s", ErrIllegalTransition, ev, s)
	}
	return next, nil
}

func (s BookingStatus) Valid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

func (s BookingStatus) IsTerminal() bool { return len(bookingTransitions[s]) == 0 }

// HoldsInventory reports whether a booking in this status occupies rooms.
func (s BookingStatus) HoldsInventory() bool {
	return s == BookingPending || s == BookingConfirmed
}

type Booking struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	HostelID      int64           `json:"hostel_id"`
	CheckIn       time.Time       `json:"check_in"`
	CheckOut      time.Time       `json:"check_out"`
	NumberOfRooms int             `json:"number_of_rooms"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Status        BookingStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (b Booking) Nights() int { return NightsBetween(b.CheckIn, b.CheckOut) }

// Overlaps uses half-open ranges: a stay ending on day X does not collide
// with one starting on day X.
func (b Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && checkIn.Before(b.CheckOut)
}

// BookingRequest is a creation attempt.
type BookingRequest struct {
	UserID        int64
	HostelID      int64
	CheckIn       time.Time
	CheckOut      time.Time
	NumberOfRooms int
}

// DateOf drops the clock part of t, keeping its calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// NightsBetween counts calendar days from checkIn to checkOut. It works on
// unix seconds so ranges longer than a time.Duration stay exact.
func NightsBetween(checkIn, checkOut time.Time) int {
	const secondsPerDay = 24 * 60 * 60
	return int((DateOf(checkOut).Unix() - DateOf(checkIn).Unix()) / secondsPerDay)
}
