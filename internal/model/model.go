// Package model defines the core domain types for the live request system.
package model

import "time"

// Request status labels. The set is open by design: UpdateStatus stores
// whatever label it is given, so operators can revert or extend decisions.
const (
	StatusPending     = "pending"
	StatusAccepted    = "accepted"
	StatusRejected    = "rejected"
	StatusLater5To15  = "later_5_15"
	StatusLater15To30 = "later_15_30"
	StatusLater30Plus = "later_30_plus"

	// StatusLater is a query-only alias that expands to the three later_*
	// labels. It is never stored on a request.
	StatusLater = "later"
)

// LaterStatuses lists the labels covered by the "later" query alias.
var LaterStatuses = []string{StatusLater5To15, StatusLater15To30, StatusLater30Plus}

// Event represents one live session during which requests may be submitted.
// At most one event is active system-wide at any time.
type Event struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Code           string     `json:"code"`
	Active         bool       `json:"active"`
	AcceptedStyles []string   `json:"accepted_styles"`
	CreatedAt      time.Time  `json:"created_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`

	// TotalRequests is derived from the request store on read, never stored.
	TotalRequests int `json:"total_requests"`
}

// Request is an attendee's ask for a specific track, scoped to one event.
// It survives even if the owning event is later ended.
type Request struct {
	ID            string     `json:"id"`
	EventID       string     `json:"event_id"`
	TrackName     string     `json:"track_name"`
	ArtistName    string     `json:"artist_name"`
	AlbumImage    string     `json:"album_image,omitempty"`
	SpotifyURI    string     `json:"spotify_uri,omitempty"`
	RequesterName string     `json:"requester_name"`
	Status        string     `json:"status"`
	RequestedAt   time.Time  `json:"requested_at"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
}

// IsLater reports whether the request sits in any of the later_* buckets.
func (r *Request) IsLater() bool {
	for _, s := range LaterStatuses {
		if r.Status == s {
			return true
		}
	}
	return false
}

// TrackResult is a normalized track descriptor from the search adapter.
// Fallback marks placeholder results served while the upstream catalog is
// unreachable or unconfigured.
type TrackResult struct {
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	AlbumImage string `json:"album_image,omitempty"`
	URI        string `json:"uri,omitempty"`
	Fallback   bool   `json:"fallback,omitempty"`
}

// TrackCount is one aggregated (track, artist) pair with its request count.
type TrackCount struct {
	TrackName  string `json:"track_name"`
	ArtistName string `json:"artist_name"`
	Count      int    `json:"count"`
}

// EventStats summarises the requests submitted against a single event.
type EventStats struct {
	TotalRequests    int          `json:"total_requests"`
	AcceptedRequests int          `json:"accepted_requests"`
	RejectedRequests int          `json:"rejected_requests"`
	LaterRequests    int          `json:"later_requests"`
	TopTracks        []TrackCount `json:"top_tracks"`
}

// CodeValidation is the payload returned for a valid join code.
type CodeValidation struct {
	EventID   string `json:"event_id"`
	EventName string `json:"event_name"`
}

// Snapshot is the complete persisted copy of all events and requests.
type Snapshot struct {
	Events   []Event   `json:"events"`
	Requests []Request `json:"requests"`
}

// CreateEventRequest is the payload for creating a new event.
// Both fields are optional: a missing code is generated.
type CreateEventRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// UpdateEventRequest is a partial update; nil fields are left untouched.
type UpdateEventRequest struct {
	Name           *string   `json:"name"`
	AcceptedStyles *[]string `json:"accepted_styles"`
	Active         *bool     `json:"active"`
}

// ValidateCodeRequest is the payload for checking a join code.
type ValidateCodeRequest struct {
	Code string `json:"code"`
}

// SubmitRequest is the payload for submitting a song request.
type SubmitRequest struct {
	EventID       string `json:"event_id"`
	TrackName     string `json:"track_name"`
	ArtistName    string `json:"artist_name"`
	AlbumImage    string `json:"album_image"`
	SpotifyURI    string `json:"spotify_uri"`
	RequesterName string `json:"requester_name"`
}

// UpdateStatusRequest is the payload for changing a request's status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// Response is the uniform JSON envelope returned by every API endpoint.
// Callers must branch on Success, never on the presence of Data.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}
