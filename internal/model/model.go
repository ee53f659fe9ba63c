// Package model defines the core domain types for the practice-event
// listing service.
package model

import "time"

// Practice format values.
const (
	FormatMemory = "memory"
	FormatVideo  = "video"
)

// Proficiency values.
const (
	ProficiencyBeginner = "beginner"
	ProficiencyMid      = "mid"
	ProficiencyPro      = "pro"
)

// Artist category values.
const (
	ArtistGirlGroup = "girl_group"
	ArtistBoyGroup  = "boy_group"
	ArtistMixed     = "mixed"
)

// Event represents a posted practice session. Date and Time are stored as
// ISO-sortable strings so that lexical ordering matches calendar ordering.
type Event struct {
	ID            int64     `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	Playlist      string    `db:"playlist" json:"playlist"`
	Format        string    `db:"format" json:"format"`
	Location      string    `db:"location" json:"location"`
	Date          string    `db:"date" json:"date"`
	Time          string    `db:"time" json:"time"`
	VideoRecorded bool      `db:"video_recorded" json:"video_recorded"`
	Proficiency   string    `db:"proficiency" json:"proficiency"`
	ArtistType    string    `db:"artist_type" json:"artist_type"`
	CreatorEmail  string    `db:"creator_email" json:"creator_email"`
	ManageToken   string    `db:"manage_token" json:"-"`
	RSVPCount     int       `db:"rsvp_count" json:"rsvp_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// RSVP represents one attendance commitment for one event.
type RSVP struct {
	ID             int64     `db:"id" json:"id"`
	EventID        int64     `db:"event_id" json:"event_id"`
	Email          string    `db:"email" json:"email"`
	UserIdentifier string    `db:"user_identifier" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// EventFilter holds the optional, independently combinable list filters.
type EventFilter struct {
	Query       string
	Location    string
	Proficiency string
	ArtistType  string
}

// CreateEventRequest is the payload for posting a new event.
type CreateEventRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Playlist      string `json:"playlist"`
	Format        string `json:"format"`
	Location      string `json:"location"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	VideoRecorded bool   `json:"video_recorded"`
	Proficiency   string `json:"proficiency"`
	ArtistType    string `json:"artist_type"`
	CreatorEmail  string `json:"creator_email"`
}

// CreateEventResponse is returned once; the manage token is not
// retrievable afterwards except from the confirmation email.
type CreateEventResponse struct {
	ID          int64  `json:"id"`
	ManageToken string `json:"manage_token"`
}

// RSVPRequest is the payload for RSVPing to an event.
type RSVPRequest struct {
	Email string `json:"email"`
}

// RSVPResponse carries the recomputed attendance count after a
// successful RSVP.
type RSVPResponse struct {
	RSVPCount int `json:"rsvp_count"`
}

// RSVPEntry is one row of the creator-facing attendee list.
type RSVPEntry struct {
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
