// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/practicehub/api/internal/model"
	"github.com/practicehub/api/internal/notify"
	"github.com/practicehub/api/internal/repository"
)

// ErrValidation marks a missing required field; always surfaced to the
// caller with a human-readable message.
var ErrValidation = errors.New("validation failed")

// ErrBadToken is returned when the supplied management token does not
// match the event's token.
var ErrBadToken = errors.New("invalid management token")

// EventService orchestrates event and RSVP operations.
type EventService struct {
	events *repository.EventRepository
	rsvps  *repository.RSVPRepository
	mailer notify.Mailer
	log    zerolog.Logger
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(
	events *repository.EventRepository,
	rsvps *repository.RSVPRepository,
	mailer notify.Mailer,
	log zerolog.Logger,
) *EventService {
	return &EventService{events: events, rsvps: rsvps, mailer: mailer, log: log}
}

// CreateEvent validates the request, persists the event with a freshly
// generated management token, and sends a best-effort confirmation to the
// creator. The event is durable and its id returned regardless of the
// notification outcome.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	required := []struct{ field, value string }{
		{"title", req.Title},
		{"location", req.Location},
		{"date", req.Date},
		{"time", req.Time},
		{"creator_email", req.CreatorEmail},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return nil, fmt.Errorf("%w: %s is required", ErrValidation, f.field)
		}
	}

	event := &model.Event{
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Playlist:      req.Playlist,
		Format:        req.Format,
		Location:      strings.TrimSpace(req.Location),
		Date:          strings.TrimSpace(req.Date),
		Time:          strings.TrimSpace(req.Time),
		VideoRecorded: req.VideoRecorded,
		Proficiency:   req.Proficiency,
		ArtistType:    req.ArtistType,
		CreatorEmail:  strings.TrimSpace(req.CreatorEmail),
		ManageToken:   uuid.NewString(),
	}

	if _, err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.sendBestEffort(ctx, event.CreatorEmail,
		fmt.Sprintf("Your practice event %q is live", event.Title),
		creatorConfirmationBody(event))

	return event, nil
}

// ListEvents returns events matching the filter with their RSVP counts.
func (s *EventService) ListEvents(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	return s.events.List(ctx, f)
}

// RSVP records an attendance commitment and returns the updated count for
// the event. A duplicate (event, email) pair is rejected without mutating
// state. When the parent event exists, two best-effort notifications go
// out: a confirmation to the attendee and an alert to the creator.
func (s *EventService) RSVP(ctx context.Context, eventID int64, email, identifier string) (int, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return 0, fmt.Errorf("%w: email is required", ErrValidation)
	}

	rsvp := &model.RSVP{EventID: eventID, Email: email, UserIdentifier: identifier}
	if err := s.rsvps.Create(ctx, rsvp); err != nil {
		return 0, err
	}

	// Referential integrity is not enforced eagerly; a missing parent
	// only suppresses the notifications.
	event, err := s.events.GetByID(ctx, eventID)
	switch {
	case err == nil:
		s.sendBestEffort(ctx, email,
			fmt.Sprintf("You're in: %s", event.Title),
			attendeeConfirmationBody(event))
		s.sendBestEffort(ctx, event.CreatorEmail,
			fmt.Sprintf("New RSVP for %s", event.Title),
			creatorAlertBody(event, email))
	case errors.Is(err, repository.ErrNotFound):
		s.log.Warn().Int64("event_id", eventID).Msg("rsvp recorded for unknown event, notifications skipped")
	default:
		s.log.Error().Err(err).Int64("event_id", eventID).Msg("event lookup for notification failed")
	}

	return s.rsvps.CountForEvent(ctx, eventID)
}

// ListRSVPs returns the attendee list for an event. The caller must
// present the event's management token; this is the server-side
// replacement for the old retype-the-creator-email check.
func (s *EventService) ListRSVPs(ctx context.Context, eventID int64, token string) ([]model.RSVPEntry, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.ManageToken == "" || token != event.ManageToken {
		return nil, ErrBadToken
	}
	return s.rsvps.ListForEvent(ctx, eventID)
}

// sendBestEffort attempts one notification. Failures are logged with the
// provider-reported detail and never propagated; email is auxiliary to the
// already-durable primary action.
func (s *EventService) sendBestEffort(ctx context.Context, to, subject, body string) {
	messageID, err := s.mailer.Send(ctx, to, subject, body)
	if err != nil {
		s.log.Warn().Err(err).Str("to", to).Str("subject", subject).Msg("notification failed")
		return
	}
	s.log.Info().Str("to", to).Str("message_id", messageID).Msg("notification sent")
}

func creatorConfirmationBody(e *model.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your practice event is posted.\n\n")
	fmt.Fprintf(&b, "%s\n%s on %s at %s\n\n", e.Title, e.Location, e.Date, e.Time)
	fmt.Fprintf(&b, "Keep this management token to view your attendee list:\n%s\n", e.ManageToken)
	return b.String()
}

func attendeeConfirmationBody(e *model.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your RSVP is confirmed.\n\n")
	fmt.Fprintf(&b, "%s\n%s on %s at %s\n", e.Title, e.Location, e.Date, e.Time)
	if e.Playlist != "" {
		fmt.Fprintf(&b, "Playlist: %s\n", e.Playlist)
	}
	return b.String()
}

func creatorAlertBody(e *model.Event, email string) string {
	return fmt.Sprintf("%s just RSVP'd to %s (%s at %s).\n", email, e.Title, e.Date, e.Time)
}
