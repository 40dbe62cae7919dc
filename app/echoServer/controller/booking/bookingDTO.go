package booking

import (
	"time"

	"hostelfinder/model"
)

type CreateBookingReq struct {
	HostelID      int64  `json:"hostel_id" validate:"required,gt=0"`
	CheckIn       string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut      string `json:"check_out" validate:"required,datetime=2006-01-02"`
	NumberOfRooms int    `json:"number_of_rooms" validate:"required,gt=0"`
}

type BookingResp struct {
	ID            int64               `json:"id"`
	UserID        int64               `json:"user_id"`
	HostelID      int64               `json:"hostel_id"`
	CheckIn       string              `json:"check_in"`
	CheckOut      string              `json:"check_out"`
	Nights        int                 `json:"nights"`
	NumberOfRooms int                 `json:"number_of_rooms"`
	TotalPrice    string              `json:"total_price"`
	Status        model.BookingStatus `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func toResp(b *model.Booking) BookingResp {
	return BookingResp{
		ID:            b.ID,
		UserID:        b.UserID,
		HostelID:      b.HostelID,
		CheckIn:       b.CheckIn.Format(model.DateLayout),
		CheckOut:      b.CheckOut.Format(model.DateLayout),
		Nights:        b.Nights(),
		NumberOfRooms: b.NumberOfRooms,
		TotalPrice:    b.TotalPrice.StringFixed(2),
		Status:        b.Status,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func toResps(bs []model.Booking) []BookingResp {
	out := make([]BookingResp, 0, len(bs))
	for i := range bs {
		out = append(out, toResp(&bs[i]))
	}
	return out
}
