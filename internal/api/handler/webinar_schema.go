package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// Seat bounds are business rules checked by the use-cases, not here.
type organizeWebinarRequest struct {
	Title     string    `json:"title"      validate:"required"`
	Seats     seatCount `json:"seats"      swaggertype:"integer"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date"   validate:"required"`
}

type changeSeatsRequest struct {
	Seats seatCount `json:"seats" swaggertype:"integer"`
}

type webinarLinks struct {
	Self  string `json:"self"`
	Seats string `json:"seats"`
}

type organizeWebinarResponse struct {
	ID    string       `json:"id"`
	Links webinarLinks `json:"_links"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func linksFor(id string) webinarLinks {
	return webinarLinks{
		Self:  "/v1/webinars/" + id,
		Seats: "/v1/webinars/" + id + "/seats",
	}
}
