package user

import "time"

type User struct {
	Id       string    `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Password []byte    `json:"-"`
	Avatar   string    `json:"avatar"`
	Created  time.Time `json:"created"`
}

// Summary is the author view attached to posts and comments.
type Summary struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// ProfileUpdate holds the profile fields a user may change. Nil fields
// are left as they are.
type ProfileUpdate struct {
	Username *string `json:"username"`
	Avatar   *string `json:"avatar"`
}

func (u *User) Summary() *Summary {
	return &Summary{
		Id:       u.Id,
		Username: u.Username,
		Avatar:   u.Avatar,
	}
}
