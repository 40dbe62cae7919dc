package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Hostel struct {
	ID             int64           `json:"id"`
	OwnerID        int64           `json:"owner_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Address        string          `json:"address"`
	Pincode        string          `json:"pincode"`
	PricePerNight  decimal.Decimal `json:"price_per_night"`
	TotalRooms     int             `json:"total_rooms"`
	AvailableRooms int             `json:"available_rooms"`
	Facilities     []string        `json:"facilities"`
	Images         []string        `json:"images"`
	Rating         float64         `json:"rating"`
	TotalReviews   int             `json:"total_reviews"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// HeldRooms is the number of rooms currently taken out of the pool.
func (h Hostel) HeldRooms() int { return h.TotalRooms - h.AvailableRooms }

// HasFacilities reports whether h offers every facility in want.
func (h Hostel) HasFacilities(want []string) bool {
	have := make(map[string]struct{}, len(h.Facilities))
	for _, f := range h.Facilities {
		have[f] = struct{}{}
	}
	for _, f := range want {
		if _, ok := have[f]; !ok {
			return false
		}
	}
	return true
}

type HostelFilter struct {
	Pincode    string
	MaxPrice   *decimal.Decimal
	Facilities []string
}

// HostelReq is the create/update payload.
// swagger:model HostelReq
type HostelReq struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Description   string          `json:"description" validate:"max=2000"`
	Address       string          `json:"address" validate:"required"`
	Pincode       string          `json:"pincode" validate:"required,max=10"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	TotalRooms    int             `json:"total_rooms" validate:"required,min=1"`
	Facilities    []string        `json:"facilities"`
	Images        []string        `json:"images"`
}
