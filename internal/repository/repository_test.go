package repository

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/practicehub/api/internal/database"
	"github.com/practicehub/api/internal/model"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testEvent(title string) *model.Event {
	return &model.Event{
		Title:        title,
		Format:       model.FormatMemory,
		Location:     "Seoul",
		Date:         "2024-01-01",
		Time:         "18:00",
		Proficiency:  model.ProficiencyPro,
		ArtistType:   model.ArtistGirlGroup,
		CreatorEmail: "creator@example.com",
		ManageToken:  "token-" + title,
	}
}

func TestEventCreateAndList(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewEventRepository(db)

	e := testEvent("first practice")
	e.VideoRecorded = true
	id, err := repo.Create(ctx, e)
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)

	second := testEvent("second practice")
	second.Date = "2024-01-02"
	id2, err := repo.Create(ctx, second)
	require.NoError(t, err)
	assert.EqualValues(t, 2, id2, "ids are assigned monotonically")

	events, err := repo.List(ctx, model.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "first practice", events[0].Title)
	assert.True(t, events[0].VideoRecorded)
	assert.Equal(t, 0, events[0].RSVPCount)
	assert.Equal(t, "creator@example.com", events[0].CreatorEmail)
}

func TestEventListOrdering(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewEventRepository(db)

	// Inserted out of calendar order on purpose.
	later := testEvent("february")
	later.Date = "2024-02-01"
	_, err := repo.Create(ctx, later)
	require.NoError(t, err)

	earlier := testEvent("january")
	earlier.Date = "2024-01-01"
	_, err = repo.Create(ctx, earlier)
	require.NoError(t, err)

	sameDayLater := testEvent("january evening")
	sameDayLater.Date = "2024-01-01"
	sameDayLater.Time = "20:00"
	_, err = repo.Create(ctx, sameDayLater)
	require.NoError(t, err)

	events, err := repo.List(ctx, model.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "january", events[0].Title)
	assert.Equal(t, "january evening", events[1].Title)
	assert.Equal(t, "february", events[2].Title)
}

func TestEventListFilters(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewEventRepository(db)

	a := testEvent("fancy point dance")
	a.Location = "Seoul"
	a.Proficiency = model.ProficiencyPro
	_, err := repo.Create(ctx, a)
	require.NoError(t, err)

	b := testEvent("warmup session")
	b.Location = "Seoul"
	b.Proficiency = model.ProficiencyBeginner
	b.Playlist = "NewJeans - ETA"
	_, err = repo.Create(ctx, b)
	require.NoError(t, err)

	c := testEvent("boy group night")
	c.Location = "Busan"
	c.ArtistType = model.ArtistBoyGroup
	_, err = repo.Create(ctx, c)
	require.NoError(t, err)

	// Filters are conjunctive.
	events, err := repo.List(ctx, model.EventFilter{Location: "Seoul", Proficiency: model.ProficiencyPro})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "fancy point dance", events[0].Title)

	// Free text matches title, description, or playlist, case-insensitively.
	events, err = repo.List(ctx, model.EventFilter{Query: "newjeans"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "warmup session", events[0].Title)

	// Location is a substring match.
	events, err = repo.List(ctx, model.EventFilter{Location: "usa"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "boy group night", events[0].Title)

	events, err = repo.List(ctx, model.EventFilter{ArtistType: model.ArtistBoyGroup})
	require.NoError(t, err)
	require.Len(t, events, 1)

	events, err = repo.List(ctx, model.EventFilter{Location: "Seoul", Query: "no such thing"})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventGetByID(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewEventRepository(db)

	id, err := repo.Create(ctx, testEvent("solo practice"))
	require.NoError(t, err)

	e, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "solo practice", e.Title)
	assert.Equal(t, "token-solo practice", e.ManageToken)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRSVPCreateAndCount(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	events := NewEventRepository(db)
	rsvps := NewRSVPRepository(db)

	id, err := events.Create(ctx, testEvent("group practice"))
	require.NoError(t, err)

	err = rsvps.Create(ctx, &model.RSVP{EventID: id, Email: "a@x.com", UserIdentifier: "10.0.0.1"})
	require.NoError(t, err)
	err = rsvps.Create(ctx, &model.RSVP{EventID: id, Email: "b@x.com"})
	require.NoError(t, err)

	count, err := rsvps.CountForEvent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	events2, err := events.List(ctx, model.EventFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, events2[0].RSVPCount)

	entries, err := rsvps.ListForEvent(ctx, id)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a@x.com", entries[0].Email)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestRSVPDuplicateRejected(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	events := NewEventRepository(db)
	rsvps := NewRSVPRepository(db)

	id, err := events.Create(ctx, testEvent("popular practice"))
	require.NoError(t, err)

	require.NoError(t, rsvps.Create(ctx, &model.RSVP{EventID: id, Email: "a@x.com"}))

	err = rsvps.Create(ctx, &model.RSVP{EventID: id, Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrAlreadyRSVPd)

	// Uniqueness is case-sensitive exact match.
	require.NoError(t, rsvps.Create(ctx, &model.RSVP{EventID: id, Email: "A@x.com"}))

	// Same email on a different event is fine.
	id2, err := events.Create(ctx, testEvent("other practice"))
	require.NoError(t, err)
	require.NoError(t, rsvps.Create(ctx, &model.RSVP{EventID: id2, Email: "a@x.com"}))

	count, err := rsvps.CountForEvent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "rejected duplicate must not change the count")
}

func TestRSVPUniqueIndexBacksThePreCheck(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	events := NewEventRepository(db)

	id, err := events.Create(ctx, testEvent("race target"))
	require.NoError(t, err)

	// Bypass the repository pre-check to prove the store itself rejects
	// the second insert, as a concurrent racer would experience.
	insert := `INSERT INTO rsvps (event_id, email, user_identifier, created_at)
		VALUES (?, ?, '', CURRENT_TIMESTAMP)`
	_, err = db.ExecContext(ctx, insert, id, "a@x.com")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert, id, "a@x.com")
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
}
