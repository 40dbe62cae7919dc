package auth

import "hostelfinder/model"

// AuthResp is returned by register and login. user_type tells the client
// which side of the app to open: seekers book, owners list hostels.
type AuthResp struct {
	Token    string         `json:"token"`
	UserID   int64          `json:"user_id"`
	FullName string         `json:"full_name"`
	Email    string         `json:"email"`
	UserType model.UserType `json:"user_type"`
}

func toResp(u *model.User, token string) AuthResp {
	return AuthResp{
		Token:    token,
		UserID:   u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		UserType: u.UserType,
	}
}
