package model

import "time"

// WaitlistRequest is posted by the storefront's waitlist form. Date is the
// client's submission time and defaults to the server clock.
type WaitlistRequest struct {
	Email string     `json:"email" validate:"required,email,max=254"`
	Date  *time.Time `json:"date"`
}

type WaitlistResponse struct {
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joinedAt"`
	Existing bool      `json:"existing"`
}
