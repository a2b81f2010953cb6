package dto

// CreateCalendarRequest registers a calendar protected by a passcode.
type CreateCalendarRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Passcode string `json:"passcode" validate:"required,min=4,max=72"`
}

// OpenSessionRequest exchanges a passcode for a session token.
type OpenSessionRequest struct {
	Passcode string `json:"passcode" validate:"required"`
}

// RenameCalendarRequest changes the calendar display name.
type RenameCalendarRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}
