package user

import (
	"strconv"
	"time"
)

// Response shapes a record for JSON bodies and templates.
type Response struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Age       *int   `json:"age"`
	Address   string `json:"address"`
	Step      int    `json:"step"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`

	ageText string
}

func Present(u User) Response {
	resp := Response{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Age:     u.Age,
		Address: u.Address,
		Step:    int(u.Step),
	}
	if u.Age != nil {
		resp.ageText = strconv.Itoa(*u.Age)
	}
	if !u.CreatedAt.IsZero() {
		resp.CreatedAt = u.CreatedAt.Format(time.RFC3339)
	}
	if !u.UpdatedAt.IsZero() {
		resp.UpdatedAt = u.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}

// presentSubmitted keeps a rejected raw age so the form can redisplay it.
func presentSubmitted(u User, f Fields) Response {
	resp := Present(u)
	if f.Age != nil {
		resp.ageText = *f.Age
	}
	return resp
}

// AgeText is the age as shown in a form field.
func (r Response) AgeText() string {
	return r.ageText
}
