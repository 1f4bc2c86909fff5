package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setlisthq/setlist/internal/model"
)

func TestCreateEnforcesSingleActive(t *testing.T) {
	s := NewEventStore()

	first, err := s.Create(model.CreateEventRequest{Name: "Friday Set"})
	require.NoError(t, err)
	assert.True(t, first.Active)

	// A second creation while one is active must not mutate state.
	_, err = s.Create(model.CreateEventRequest{Name: "Saturday Set"})
	assert.ErrorIs(t, err, ErrActiveEventExists)
	assert.Len(t, s.List(), 1)

	// Ending the first frees the slot.
	_, err = s.End(first.ID)
	require.NoError(t, err)
	second, err := s.Create(model.CreateEventRequest{Name: "Saturday Set"})
	require.NoError(t, err)
	assert.True(t, second.Active)
	assert.Len(t, s.List(), 2)
}

func TestCreateGeneratesCode(t *testing.T) {
	s := NewEventStore()

	event, err := s.Create(model.CreateEventRequest{})
	require.NoError(t, err)
	assert.Len(t, event.Code, 4)
	assert.Equal(t, "Live Session", event.Name)

	_, err = s.End(event.ID)
	require.NoError(t, err)

	custom, err := s.Create(model.CreateEventRequest{Name: "Custom", Code: "1234"})
	require.NoError(t, err)
	assert.Equal(t, "1234", custom.Code)
}

func TestEndRestampsAndNeverResurrects(t *testing.T) {
	s := NewEventStore()
	event, err := s.Create(model.CreateEventRequest{Name: "Set"})
	require.NoError(t, err)

	ended, err := s.End(event.ID)
	require.NoError(t, err)
	assert.False(t, ended.Active)
	require.NotNil(t, ended.EndedAt)
	first := *ended.EndedAt

	time.Sleep(time.Millisecond)

	again, err := s.End(event.ID)
	require.NoError(t, err)
	assert.False(t, again.Active)
	require.NotNil(t, again.EndedAt)
	assert.True(t, again.EndedAt.After(first), "second End must re-stamp EndedAt")
}

func TestEndUnknownEvent(t *testing.T) {
	s := NewEventStore()
	_, err := s.End("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAppliesOnlyPresentFields(t *testing.T) {
	s := NewEventStore()
	event, err := s.Create(model.CreateEventRequest{Name: "Original", Code: "9999"})
	require.NoError(t, err)

	name := "Renamed"
	styles := []string{"house", "techno"}
	updated, err := s.Update(event.ID, model.UpdateEventRequest{
		Name:           &name,
		AcceptedStyles: &styles,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, []string{"house", "techno"}, updated.AcceptedStyles)
	assert.True(t, updated.Active, "absent fields stay untouched")
	assert.Equal(t, "9999", updated.Code)
}

func TestUpdateCanReactivateManually(t *testing.T) {
	// Update does not re-check the single-active invariant; only Create
	// does. This mirrors the behaviour of the system this replaces.
	s := NewEventStore()
	first, err := s.Create(model.CreateEventRequest{Name: "First"})
	require.NoError(t, err)
	_, err = s.End(first.ID)
	require.NoError(t, err)

	second, err := s.Create(model.CreateEventRequest{Name: "Second"})
	require.NoError(t, err)

	active := true
	revived, err := s.Update(first.ID, model.UpdateEventRequest{Active: &active})
	require.NoError(t, err)
	assert.True(t, revived.Active)

	got, err := s.GetByID(second.ID)
	require.NoError(t, err)
	assert.True(t, got.Active, "second event is untouched")
}

func TestUpdateUnknownEvent(t *testing.T) {
	s := NewEventStore()
	name := "x"
	_, err := s.Update("nope", model.UpdateEventRequest{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateCodeMatchesActiveOnly(t *testing.T) {
	s := NewEventStore()
	event, err := s.Create(model.CreateEventRequest{Name: "Set", Code: "1234"})
	require.NoError(t, err)

	v, err := s.ValidateCode("1234")
	require.NoError(t, err)
	assert.Equal(t, event.ID, v.EventID)
	assert.Equal(t, "Set", v.EventName)

	_, err = s.ValidateCode("0000")
	assert.ErrorIs(t, err, ErrInvalidCode)

	// Codes of ended events never validate.
	_, err = s.End(event.ID)
	require.NoError(t, err)
	_, err = s.ValidateCode("1234")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestListNewestFirst(t *testing.T) {
	s := NewEventStore()

	a, err := s.Create(model.CreateEventRequest{Name: "A"})
	require.NoError(t, err)
	_, err = s.End(a.ID)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	b, err := s.Create(model.CreateEventRequest{Name: "B"})
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)
}

func TestGetActive(t *testing.T) {
	s := NewEventStore()
	assert.Nil(t, s.GetActive())

	event, err := s.Create(model.CreateEventRequest{Name: "Set"})
	require.NoError(t, err)

	active := s.GetActive()
	require.NotNil(t, active)
	assert.Equal(t, event.ID, active.ID)

	_, err = s.End(event.ID)
	require.NoError(t, err)
	assert.Nil(t, s.GetActive())
}

func TestExportRestoreRoundTrip(t *testing.T) {
	s := NewEventStore()
	event, err := s.Create(model.CreateEventRequest{Name: "Set", Code: "4321"})
	require.NoError(t, err)
	_, err = s.End(event.ID)
	require.NoError(t, err)

	restored := NewEventStore()
	restored.Restore(s.Export())

	got, err := restored.GetByID(event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Set", got.Name)
	assert.False(t, got.Active)
	assert.NotNil(t, got.EndedAt)
}
