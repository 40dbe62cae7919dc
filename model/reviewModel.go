package model

import "time"

type Review struct {
	ID        int64     `json:"id"`
	HostelID  int64     `json:"hostel_id"`
	UserID    int64     `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewReq is the create payload.
// swagger:model ReviewReq
type ReviewReq struct {
	HostelID int64  `json:"hostel_id" validate:"required,gt=0"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Comment  string `json:"comment" validate:"required,min=10,max=1000"`
}
