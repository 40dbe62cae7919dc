package hostel

// SearchQuery binds GET /v1/hostels/search.
type SearchQuery struct {
	Pincode    string `query:"pincode" validate:"omitempty,max=10"`
	MaxPrice   string `query:"maxPrice" validate:"omitempty,numeric"`
	Facilities string `query:"facilities"`
}

type PageQuery struct {
	Page  int `query:"page" validate:"omitempty,min=1"`
	Size  int `query:"size" validate:"omitempty,min=1,max=100"`
	Limit int `query:"limit" validate:"omitempty,min=1,max=1000"`
}
