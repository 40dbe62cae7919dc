package booking

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"hostelfinder/model"
)

// Validate decides whether req can be booked against h given the bookings
// already overlapping the requested stay. It returns the total price on
// acceptance. Checks run in a fixed order and the first failure wins:
// past check-in, date range, free pool, per-night capacity.
//
// The free pool check (availableRooms) is a coarse running counter, the
// overlap sum is the per-night figure; both have to hold.
func Validate(req model.BookingRequest, h model.Hostel, overlapping []model.Booking, today time.Time) (decimal.Decimal, error) {
	checkIn, checkOut := model.DateOf(req.CheckIn), model.DateOf(req.CheckOut)

	if req.NumberOfRooms < 1 {
		return decimal.Zero, wrap(ErrBadInput, "number of rooms must be at least 1")
	}
	if checkIn.Before(model.DateOf(today)) {
		return decimal.Zero, wrap(ErrPastCheckInDate,
			fmt.Sprintf("check-in %s is before today %s", checkIn.Format(model.DateLayout), today.Format(model.DateLayout)))
	}
	if !checkOut.After(checkIn) {
		return decimal.Zero, wrap(ErrInvalidDateRange, "check-out date must be after check-in date")
	}
	if req.NumberOfRooms > h.AvailableRooms {
		return decimal.Zero, wrap(ErrInsufficientAvailableRooms,
			fmt.Sprintf("requested %d rooms, %d available", req.NumberOfRooms, h.AvailableRooms))
	}

	held := 0
	for _, b := range overlapping {
		if b.Status.HoldsInventory() && b.Overlaps(checkIn, checkOut) {
			held += b.NumberOfRooms
		}
	}
	if held+req.NumberOfRooms > h.TotalRooms {
		return decimal.Zero, wrap(ErrInsufficientRoomsForDateRange,
			fmt.Sprintf("%d rooms already held for these dates, %d requested, capacity %d", held, req.NumberOfRooms, h.TotalRooms))
	}

	return Price(h.PricePerNight, model.NightsBetween(checkIn, checkOut), req.NumberOfRooms), nil
}

// Price is pricePerNight x nights x rooms.
func Price(pricePerNight decimal.Decimal, nights, rooms int) decimal.Decimal {
	return pricePerNight.Mul(decimal.NewFromInt(int64(nights))).Mul(decimal.NewFromInt(int64(rooms)))
}
