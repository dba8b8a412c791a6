package domain

// User is the already-resolved identity acting on a webinar.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}
