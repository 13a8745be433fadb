package dialogue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomwise/models"
	"roomwise/services/availability"
	"roomwise/services/booking"
	"roomwise/services/calendar"
	"roomwise/services/nlp"
)

type memRoomRepo struct {
	rooms []models.Room
}

func (f *memRoomRepo) GetByID(_ context.Context, id string) (*models.Room, error) {
	for i := range f.rooms {
		if f.rooms[i].ID == id {
			return &f.rooms[i], nil
		}
	}
	return nil, nil
}

func (f *memRoomRepo) GetByName(_ context.Context, name string) (*models.Room, error) {
	for i := range f.rooms {
		if f.rooms[i].Name == name {
			return &f.rooms[i], nil
		}
	}
	return nil, nil
}

func (f *memRoomRepo) GetActive(_ context.Context, minCapacity int) ([]models.Room, error) {
	var out []models.Room
	for _, r := range f.rooms {
		if r.Active && r.Capacity >= minCapacity {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *memRoomRepo) Create(_ context.Context, room *models.Room) error {
	f.rooms = append(f.rooms, *room)
	return nil
}

type memBookingRepo struct {
	bookings []models.Booking
}

func (f *memBookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	for i := range f.bookings {
		if f.bookings[i].ID == id {
			b := f.bookings[i]
			return &b, nil
		}
	}
	return nil, nil
}

func (f *memBookingRepo) Create(_ context.Context, b *models.Booking) error {
	f.bookings = append(f.bookings, *b)
	return nil
}

func (f *memBookingRepo) Update(_ context.Context, b *models.Booking) error {
	for i := range f.bookings {
		if f.bookings[i].ID == b.ID {
			f.bookings[i] = *b
		}
	}
	return nil
}

func (f *memBookingRepo) SetStatus(_ context.Context, id, status string) error {
	for i := range f.bookings {
		if f.bookings[i].ID == id {
			f.bookings[i].Status = status
		}
	}
	return nil
}

func (f *memBookingRepo) FindConflicts(_ context.Context, roomID string, start, end time.Time, excludeID string) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range f.bookings {
		if b.RoomID != roomID || b.Status != models.BookingStatusConfirmed || b.ID == excludeID {
			continue
		}
		if b.Start.Before(end) && b.End.After(start) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *memBookingRepo) FindByRoomAndDay(_ context.Context, roomID string, dayStart, dayEnd time.Time) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range f.bookings {
		if b.RoomID == roomID && b.Status == models.BookingStatusConfirmed &&
			b.Start.Before(dayEnd) && b.End.After(dayStart) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *memBookingRepo) FindUpcomingByUser(_ context.Context, userID string, now time.Time) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range f.bookings {
		if b.UserID == userID && b.Status == models.BookingStatusConfirmed && b.End.After(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *memBookingRepo) FindLastCreatedByUser(_ context.Context, userID string, now time.Time) (*models.Booking, error) {
	var last *models.Booking
	for i := range f.bookings {
		b := f.bookings[i]
		if b.UserID != userID || b.Status != models.BookingStatusConfirmed || !b.End.After(now) {
			continue
		}
		if last == nil || b.CreatedAt.After(last.CreatedAt) {
			copied := b
			last = &copied
		}
	}
	return last, nil
}

type memEventRepo struct {
	events []models.Event
}

func (f *memEventRepo) GetByID(_ context.Context, id string) (*models.Event, error) {
	for i := range f.events {
		if f.events[i].ID == id {
			return &f.events[i], nil
		}
	}
	return nil, nil
}

func (f *memEventRepo) Upsert(_ context.Context, ev *models.Event) error {
	f.events = append(f.events, *ev)
	return nil
}

func (f *memEventRepo) FindUpcomingByUser(_ context.Context, userID string, now time.Time) ([]models.Event, error) {
	var out []models.Event
	for _, ev := range f.events {
		if ev.UserID == userID && ev.End.After(now) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *memEventRepo) FindUnbookedByUser(_ context.Context, userID string, now time.Time) ([]models.Event, error) {
	var out []models.Event
	for _, ev := range f.events {
		if ev.UserID == userID && ev.End.After(now) && ev.NeedsRoom() {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *memEventRepo) SetBookingLink(_ context.Context, eventID, bookingID string) error {
	for i := range f.events {
		if f.events[i].ID == eventID {
			f.events[i].BookingID = bookingID
		}
	}
	return nil
}

func (f *memEventRepo) ClearBookingLinks(_ context.Context, bookingID string) error {
	for i := range f.events {
		if f.events[i].BookingID == bookingID {
			f.events[i].BookingID = ""
		}
	}
	return nil
}

// memContextStore keeps dialogue contexts in a map, standing in for redis.
type memContextStore struct {
	contexts map[string]*models.DialogueContext
	sets     int
}

func newMemContextStore() *memContextStore {
	return &memContextStore{contexts: map[string]*models.DialogueContext{}}
}

func (s *memContextStore) Get(_ context.Context, userID string) (*models.DialogueContext, error) {
	if dc, ok := s.contexts[userID]; ok {
		copied := *dc
		return &copied, nil
	}
	return &models.DialogueContext{}, nil
}

func (s *memContextStore) Set(_ context.Context, userID string, dc *models.DialogueContext) error {
	copied := *dc
	s.contexts[userID] = &copied
	s.sets++
	return nil
}

func (s *memContextStore) Clear(_ context.Context, userID string) error {
	delete(s.contexts, userID)
	return nil
}

// scriptedNLP returns canned extractions and a fixed generated reply.
type scriptedNLP struct {
	intent   models.Intent
	slots    map[string]interface{}
	parseErr error
	genErr   error
}

func (s *scriptedNLP) ParseIntent(_ context.Context, _ string, _ []models.DialogueTurn) (*nlp.Extraction, error) {
	if s.parseErr != nil {
		return nil, s.parseErr
	}
	return &nlp.Extraction{Intent: s.intent, Slots: s.slots}, nil
}

func (s *scriptedNLP) GenerateStream(_ context.Context, _ string, onDelta func(string) error) (string, error) {
	if s.genErr != nil {
		return "", s.genErr
	}
	if err := onDelta("Sure, "); err != nil {
		return "", err
	}
	if err := onDelta("here you go."); err != nil {
		return "", err
	}
	return "Sure, here you go.", nil
}

func ts(hour, min int) time.Time {
	return time.Date(2026, 9, 14, hour, min, 0, 0, time.Local)
}

type fixture struct {
	rooms    *memRoomRepo
	bookings *memBookingRepo
	events   *memEventRepo
	router   *Router
	booking  booking.Service
}

func newFixture() *fixture {
	rooms := &memRoomRepo{rooms: []models.Room{
		{ID: "r-small", Name: "Huddle", Capacity: 4, Active: true},
		{ID: "r-mid", Name: "Boardroom", Capacity: 10, Equipment: []string{"screen"}, Active: true},
		{ID: "r-big", Name: "Auditorium", Capacity: 50, Active: true},
	}}
	bookings := &memBookingRepo{}
	events := &memEventRepo{}
	now := func() time.Time { return ts(7, 0) }

	engine := &availability.DefaultEngine{
		Rooms:    rooms,
		Bookings: bookings,
		Opts: availability.Options{
			WorkingHoursStart:         8,
			WorkingHoursEnd:           19,
			GoodFitCapacityMultiplier: 4,
			GoodFitMinCapacity:        10,
			CoherenceMultiplier:       3,
			CoherenceMinCapacity:      20,
		},
		Now: now,
	}
	bookingSvc := &booking.DefaultService{
		Repo:   bookings,
		Rooms:  rooms,
		Events: events,
		Rules: booking.Rules{
			WorkingHoursStart:       8,
			WorkingHoursEnd:         19,
			SingleUserCapacityLimit: 6,
		},
		Now: now,
	}
	calendarSvc := &calendar.DefaultService{Events: events, Now: now}

	return &fixture{
		rooms:    rooms,
		bookings: bookings,
		events:   events,
		booking:  bookingSvc,
		router: &Router{
			Engine:   engine,
			Bookings: bookingSvc,
			Calendar: calendarSvc,
			Rooms:    rooms,
			Now:      now,
		},
	}
}

func TestRouteBookAsksForAllMissingSlotsAtOnce(t *testing.T) {
	f := newFixture()
	dc := &models.DialogueContext{Intent: models.IntentBook, Slots: models.SlotMap{Attendees: 4}}

	outcome, err := f.router.Route(context.Background(), "alice", dc)
	require.NoError(t, err)
	assert.Nil(t, outcome.Action)
	assert.Contains(t, outcome.Situation, "date and time")
	assert.Contains(t, outcome.Situation, "duration")
	assert.Contains(t, outcome.Situation, "single question")
}

func TestRouteBookProposesUnbookedCalendarEvent(t *testing.T) {
	f := newFixture()
	f.events.events = []models.Event{{
		ID: "ev1", UID: "uid1", Summary: "Sprint review", UserID: "alice",
		Start: ts(10, 0), End: ts(11, 0), Attendees: 3,
	}}
	dc := &models.DialogueContext{Intent: models.IntentBook, Slots: models.SlotMap{}}

	outcome, err := f.router.Route(context.Background(), "alice", dc)
	require.NoError(t, err)
	require.NotNil(t, outcome.Action)
	assert.Equal(t, "confirm_booking", outcome.Action.ActionRequired)
	assert.Equal(t, "ev1", outcome.Action.Payload["event_id"])
	assert.Contains(t, outcome.Situation, "Sprint review")
}

func TestRouteBookCompleteRequestYieldsConfirmAction(t *testing.T) {
	f := newFixture()
	start := ts(10, 0)
	dc := &models.DialogueContext{
		Intent: models.IntentBook,
		Slots:  models.SlotMap{StartTime: &start, DurationMinutes: 60, Attendees: 3},
	}

	outcome, err := f.router.Route(context.Background(), "alice", dc)
	require.NoError(t, err)
	require.NotNil(t, outcome.Action)
	assert.Equal(t, "confirm_booking", outcome.Action.ActionRequired)
	assert.Equal(t, "r-small", outcome.Action.Payload["room_id"], "smallest fitting room wins")
	assert.Equal(t, "Meeting", outcome.Action.Payload["title"], "untitled bookings get the default title")
}

func TestRouteBookCarriesMeetingTitle(t *testing.T) {
	f := newFixture()
	start := ts(10, 0)
	dc := &models.DialogueContext{
		Intent: models.IntentBook,
		Slots:  models.SlotMap{StartTime: &start, DurationMinutes: 60, Attendees: 3, Title: "Sprint review"},
	}

	outcome, err := f.router.Route(context.Background(), "alice", dc)
	require.NoError(t, err)
	require.NotNil(t, outcome.Action)
	assert.Equal(t, "Sprint review", outcome.Action.Payload["title"])
}

func TestRouteBookOversizedFallsBackToCoherentRoom(t *testing.T) {
	f := newFixture()
	start := ts(10, 0)
	// Both proportionate rooms are taken; only the 50-seat room is free.
	f.bookings.bookings = []models.Booking{
		{ID: "b1", RoomID: "r-small", UserID: "bob", Status: models.BookingStatusConfirmed, Start: ts(9, 0), End: ts(12, 0)},
		{ID: "b2", RoomID: "r-mid", UserID: "bob", Status: models.BookingStatusConfirmed, Start: ts(9, 0), End: ts(12, 0)},
	}
	dc := &models.DialogueContext{
		Intent: models.IntentBook,
		Slots:  models.SlotMap{StartTime: &start, DurationMinutes: 60, Attendees: 3},
	}

	outcome, err := f.router.Route(context.Background(), "alice", dc)
	require.NoError(t, err)
	require.NotNil(t, outcome.Action)
	// No coherent alternative covers the window, so the oversized room is
	// still proposed rather than refusing the booking.
	assert.Equal(t, "r-big", outcome.Action.Payload["room_id"])
}

func TestRouteBookCoherentFallbackHonorsExclusions(t *testing.T) {
	f := newFixture()
	start := ts(10, 0)
	// The small room is taken and the mid-size one ruled out, leaving only
	// the 50-seat room as a direct candidate.
	f.bookings.bookings = []models.Booking{
		{ID: "b1", RoomID: "r-small", UserID: "bob", Status: models.BookingStatusConfirmed, Start: ts(9, 0), End: ts(12, 0)},
	}
	dc := &models.DialogueContext{
		Intent: models.IntentBook,
		Slots:  models.SlotMap{StartTime: &start, DurationMinutes: 60, Attendees: 3, ExcludedRooms: []string{"Boardroom"}},
	}

	outcome, err := f.router.Route(context.Background(), "alice", dc)
	require.NoError(t, err)
	require.NotNil(t, outcome.Action)
	// The free Boardroom would be the proportionate swap, but the user
	// ruled it out, so the oversized room stands.
	assert.Equal(t, "r-big", outcome.Action.Payload["room_id"])
}

func TestRouteBookUnknownRoomExplains(t *testing.T) {
	f := newFixture()
	start := ts(10, 0)
	dc := &models.DialogueContext{
		Intent: models.IntentBook,
		Slots:  models.SlotMap{StartTime: &start, DurationMinutes: 60, Attendees: 3, RoomName: "Atlantis"},
	}

	outcome, err := f.router.Route(context.Background(), "alice", dc)
	require.NoError(t, err)
	assert.Nil(t, outcome.Action)
	assert.Contains(t, outcome.Situation, "Atlantis")
	assert.NotEmpty(t, outcome.Verbatim, "alternatives are listed verbatim")
}

func TestRouteCancelSingleDisambiguation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for i, start := range []time.Time{ts(9, 0), ts(11, 0), ts(14, 0)} {
		f.bookings.bookings = append(f.bookings.bookings, models.Booking{
			ID: "b" + string(rune('1'+i)), UserID: "alice", RoomID: "r-small",
			Start: start, End: start.Add(time.Hour),
			Title: "Sync", Status: models.BookingStatusConfirmed, CreatedAt: ts(6, i),
		})
	}

	day := ts(0, 0)
	dc := &models.DialogueContext{
		Intent: models.IntentCancel,
		Slots:  models.SlotMap{Scope: models.ScopeSingle, StartTime: &day},
	}

	// Three matches on the date: enumerate, never guess.
	outcome, err := f.router.Route(ctx, "alice", dc)
	require.NoError(t, err)
	assert.Nil(t, outcome.Action)
	assert.Contains(t, outcome.Situation, "3 bookings")
	assert.Contains(t, outcome.Verbatim, "b1")
	assert.Contains(t, outcome.Verbatim, "b3")

	// A single match is proposed with its ID.
	f.bookings.bookings = f.bookings.bookings[:1]
	outcome, err = f.router.Route(ctx, "alice", dc)
	require.NoError(t, err)
	require.NotNil(t, outcome.Action)
	assert.Equal(t, "confirm_cancel", outcome.Action.ActionRequired)
	assert.Equal(t, "b1", outcome.Action.Payload["booking_id"])
}

func TestRouteCancelAllRequiresConfirmation(t *testing.T) {
	f := newFixture()
	f.bookings.bookings = []models.Booking{
		{ID: "b1", UserID: "alice", RoomID: "r-small", Start: ts(9, 0), End: ts(10, 0), Status: models.BookingStatusConfirmed},
		{ID: "b2", UserID: "alice", RoomID: "r-small", Start: ts(11, 0), End: ts(12, 0), Status: models.BookingStatusConfirmed},
	}
	dc := &models.DialogueContext{Intent: models.IntentCancel, Slots: models.SlotMap{Scope: models.ScopeAll}}

	outcome, err := f.router.Route(context.Background(), "alice", dc)
	require.NoError(t, err)
	require.NotNil(t, outcome.Action)
	assert.Equal(t, "confirm_cancel_all", outcome.Action.ActionRequired)
	assert.Equal(t, 2, outcome.Action.Payload["count"])
}

func TestRouteCancelLastResolvesMostRecentlyCreated(t *testing.T) {
	f := newFixture()
	f.bookings.bookings = []models.Booking{
		{ID: "b1", UserID: "alice", RoomID: "r-small", Start: ts(9, 0), End: ts(10, 0), Status: models.BookingStatusConfirmed, CreatedAt: ts(6, 0)},
		{ID: "b2", UserID: "alice", RoomID: "r-small", Start: ts(11, 0), End: ts(12, 0), Status: models.BookingStatusConfirmed, CreatedAt: ts(6, 30)},
	}
	dc := &models.DialogueContext{Intent: models.IntentCancel, Slots: models.SlotMap{Scope: models.ScopeLast}}

	outcome, err := f.router.Route(context.Background(), "alice", dc)
	require.NoError(t, err)
	require.NotNil(t, outcome.Action)
	assert.Equal(t, "b2", outcome.Action.Payload["booking_id"], "last means last created, not last starting")
}

func TestRouteModifyKeepsSameRoomWhenFree(t *testing.T) {
	f := newFixture()
	created, err := f.booking.Create(context.Background(), "alice", booking.CreateRequest{
		RoomID: "r-mid", Start: ts(10, 0), End: ts(11, 0), Attendees: 5,
	})
	require.NoError(t, err)

	newStart := ts(14, 0)
	dc := &models.DialogueContext{
		Intent:        models.IntentModify,
		LastBookingID: created.ID,
		Slots:         models.SlotMap{StartTime: &newStart},
	}

	outcome, err := f.router.Route(context.Background(), "alice", dc)
	require.NoError(t, err)
	require.NotNil(t, outcome.Action)
	assert.Equal(t, "confirm_update", outcome.Action.ActionRequired)
	assert.Equal(t, "r-mid", outcome.Action.Payload["room_id"])
	assert.Equal(t, ts(15, 0).Format(time.RFC3339), outcome.Action.Payload["end_time"], "duration preserved")
}

func TestRouteModifyHonorsExplicitRoomRequest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, err := f.booking.Create(ctx, "alice", booking.CreateRequest{
		RoomID: "r-mid", Start: ts(10, 0), End: ts(11, 0), Attendees: 5,
	})
	require.NoError(t, err)

	// The current room still fits, but the user named a different one.
	dc := &models.DialogueContext{
		Intent:        models.IntentModify,
		LastBookingID: created.ID,
		Slots:         models.SlotMap{RoomName: "Auditorium"},
	}

	outcome, err := f.router.Route(ctx, "alice", dc)
	require.NoError(t, err)
	require.NotNil(t, outcome.Action)
	assert.Equal(t, "confirm_update", outcome.Action.ActionRequired)
	assert.Equal(t, "r-big", outcome.Action.Payload["room_id"])
}

func TestRouteModifyFindsReplacementRoom(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, err := f.booking.Create(ctx, "alice", booking.CreateRequest{
		RoomID: "r-small", Start: ts(10, 0), End: ts(11, 0), Attendees: 3,
	})
	require.NoError(t, err)

	// Growing to 8 people outgrows the 4-seat room.
	attendeesDC := &models.DialogueContext{
		Intent:        models.IntentModify,
		LastBookingID: created.ID,
		Slots:         models.SlotMap{Attendees: 8},
	}
	outcome, err := f.router.Route(ctx, "alice", attendeesDC)
	require.NoError(t, err)
	require.NotNil(t, outcome.Action)
	assert.Equal(t, "r-mid", outcome.Action.Payload["room_id"])
	assert.Equal(t, 8, outcome.Action.Payload["attendees"])
}

func TestRouteQueryAvailability(t *testing.T) {
	f := newFixture()
	day := ts(0, 0)
	dc := &models.DialogueContext{
		Intent: models.IntentQueryAvailability,
		Slots:  models.SlotMap{StartTime: &day, Attendees: 5},
	}

	outcome, err := f.router.Route(context.Background(), "alice", dc)
	require.NoError(t, err)
	assert.Nil(t, outcome.Action)
	assert.Contains(t, outcome.Verbatim, "Boardroom")
	assert.NotContains(t, outcome.Verbatim, "Huddle", "capacity filter applies")
}

func TestRouteExternalErrorIsStatic(t *testing.T) {
	f := newFixture()
	dc := &models.DialogueContext{Intent: models.IntentExternalError}

	outcome, err := f.router.Route(context.Background(), "alice", dc)
	require.NoError(t, err)
	assert.Equal(t, technicalErrorMessage, outcome.Static)
	assert.Nil(t, outcome.Action)
}

func TestProcessMessageStreamsThenEmitsAction(t *testing.T) {
	f := newFixture()
	store := newMemContextStore()
	start := ts(10, 0)
	svc := NewDefaultService(store, &scriptedNLP{
		intent: models.IntentBook,
		slots: map[string]interface{}{
			"start_time":       start.Format("2006-01-02T15:04:05"),
			"duration_minutes": float64(60),
			"attendees":        float64(3),
		},
	}, f.router)

	var records []models.StreamRecord
	err := svc.ProcessMessage(context.Background(), "alice", "book me a room at 10 for an hour, 3 people", func(r models.StreamRecord) error {
		records = append(records, r)
		return nil
	})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(records), 3)
	last := records[len(records)-1]
	assert.Equal(t, models.StreamTypeAction, last.Type)
	require.NotNil(t, last.Data)
	assert.Equal(t, "confirm_booking", last.Data.ActionRequired)
	for _, r := range records[:len(records)-1] {
		assert.Equal(t, models.StreamTypeDelta, r.Type)
	}

	// The turn is persisted before the action record goes out.
	dc := store.contexts["alice"]
	require.NotNil(t, dc)
	assert.Len(t, dc.Transcript, 2)
	assert.Equal(t, "user", dc.Transcript[0].Role)
	assert.Equal(t, models.IntentBook, dc.Intent)
}

func TestProcessMessageExtractionFailureLeavesContextUntouched(t *testing.T) {
	f := newFixture()
	store := newMemContextStore()
	seed := &models.DialogueContext{Intent: models.IntentBook, Slots: models.SlotMap{Attendees: 4}}
	require.NoError(t, store.Set(context.Background(), "alice", seed))
	setsBefore := store.sets

	svc := NewDefaultService(store, &scriptedNLP{parseErr: errors.New("upstream 500")}, f.router)

	var records []models.StreamRecord
	err := svc.ProcessMessage(context.Background(), "alice", "hello?", func(r models.StreamRecord) error {
		records = append(records, r)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, technicalErrorMessage, records[0].Content)
	assert.Equal(t, setsBefore, store.sets, "a failed extraction must not rewrite the stored context")
	assert.Equal(t, 4, store.contexts["alice"].Slots.Attendees)
}

func TestProcessMessageGenerationFailureNotPersisted(t *testing.T) {
	f := newFixture()
	store := newMemContextStore()
	svc := NewDefaultService(store, &scriptedNLP{
		intent: models.IntentGreeting,
		genErr: errors.New("stream cut"),
	}, f.router)

	var records []models.StreamRecord
	err := svc.ProcessMessage(context.Background(), "alice", "hi", func(r models.StreamRecord) error {
		records = append(records, r)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, models.StreamTypeError, records[0].Type)
	assert.Zero(t, store.sets, "an unfinished reply is not written to the transcript")
}

func TestProcessMessageBoundsTranscript(t *testing.T) {
	f := newFixture()
	store := newMemContextStore()
	svc := NewDefaultService(store, &scriptedNLP{intent: models.IntentGreeting}, f.router)
	svc.MaxTranscriptTurns = 6

	for i := 0; i < 10; i++ {
		err := svc.ProcessMessage(context.Background(), "alice", "hello", func(models.StreamRecord) error { return nil })
		require.NoError(t, err)
	}
	assert.Len(t, store.contexts["alice"].Transcript, 6)
}
