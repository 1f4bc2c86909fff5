package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setlisthq/setlist/internal/model"
)

func newStoresWithActiveEvent(t *testing.T) (*EventStore, *RequestStore, *model.Event) {
	t.Helper()
	events := NewEventStore()
	requests := NewRequestStore(events)
	event, err := events.Create(model.CreateEventRequest{Name: "Set", Code: "1234"})
	require.NoError(t, err)
	return events, requests, event
}

func submit(t *testing.T, s *RequestStore, eventID, track, artist string) *model.Request {
	t.Helper()
	r, err := s.Submit(model.SubmitRequest{EventID: eventID, TrackName: track, ArtistName: artist})
	require.NoError(t, err)
	return r
}

func TestSubmitRequiresActiveEvent(t *testing.T) {
	events, requests, event := newStoresWithActiveEvent(t)

	_, err := requests.Submit(model.SubmitRequest{EventID: "unknown", TrackName: "Song", ArtistName: "Band"})
	assert.ErrorIs(t, err, ErrEventNotActive)
	assert.Empty(t, requests.Export(), "rejected submit must not create anything")

	_, err = events.End(event.ID)
	require.NoError(t, err)

	_, err = requests.Submit(model.SubmitRequest{EventID: event.ID, TrackName: "Song", ArtistName: "Band"})
	assert.ErrorIs(t, err, ErrEventNotActive)
	assert.Empty(t, requests.Export())
}

func TestSubmitDefaults(t *testing.T) {
	_, requests, event := newStoresWithActiveEvent(t)

	r := submit(t, requests, event.ID, "Song A", "Band X")
	assert.Equal(t, model.StatusPending, r.Status)
	assert.Equal(t, AnonymousRequester, r.RequesterName)
	assert.Equal(t, event.ID, r.EventID)
	assert.Nil(t, r.RespondedAt)
	assert.Equal(t, 1, requests.CountForEvent(event.ID))
}

func TestRequestsSurviveEventEnd(t *testing.T) {
	events, requests, event := newStoresWithActiveEvent(t)
	r := submit(t, requests, event.ID, "Song A", "Band X")

	_, err := events.End(event.ID)
	require.NoError(t, err)

	got, err := requests.GetByID(r.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.EventID)
}

func TestUpdateStatusIsPermissive(t *testing.T) {
	_, requests, event := newStoresWithActiveEvent(t)
	r := submit(t, requests, event.ID, "Song A", "Band X")

	accepted, err := requests.UpdateStatus(r.ID, model.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, accepted.Status)
	require.NotNil(t, accepted.RespondedAt)
	first := *accepted.RespondedAt

	// Any label may follow any label, including a repeat and an unknown
	// one; RespondedAt is re-stamped every time.
	again, err := requests.UpdateStatus(r.ID, model.StatusAccepted)
	require.NoError(t, err)
	require.NotNil(t, again.RespondedAt)
	assert.False(t, again.RespondedAt.Before(first))

	odd, err := requests.UpdateStatus(r.ID, "encore")
	require.NoError(t, err)
	assert.Equal(t, "encore", odd.Status)

	_, err = requests.UpdateStatus("unknown", model.StatusRejected)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListForEventFiltersAndOrders(t *testing.T) {
	_, requests, event := newStoresWithActiveEvent(t)

	a := submit(t, requests, event.ID, "Song A", "Band X")
	b := submit(t, requests, event.ID, "Song B", "Band Y")
	c := submit(t, requests, event.ID, "Song C", "Band Z")

	_, err := requests.UpdateStatus(a.ID, model.StatusLater5To15)
	require.NoError(t, err)
	_, err = requests.UpdateStatus(b.ID, model.StatusLater30Plus)
	require.NoError(t, err)
	_, err = requests.UpdateStatus(c.ID, model.StatusAccepted)
	require.NoError(t, err)

	all := requests.ListForEvent(event.ID, "")
	require.Len(t, all, 3)
	assert.Equal(t, c.ID, all[0].ID, "most recent first")
	assert.Equal(t, a.ID, all[2].ID)

	later := requests.ListForEvent(event.ID, model.StatusLater)
	require.Len(t, later, 2)
	assert.Equal(t, b.ID, later[0].ID)
	assert.Equal(t, a.ID, later[1].ID)

	accepted := requests.ListForEvent(event.ID, model.StatusAccepted)
	require.Len(t, accepted, 1)
	assert.Equal(t, c.ID, accepted[0].ID)

	// A foreign event id yields an empty list, never an error.
	assert.Empty(t, requests.ListForEvent("other", ""))
}

func TestStatsConsistentWithList(t *testing.T) {
	_, requests, event := newStoresWithActiveEvent(t)

	ids := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		r := submit(t, requests, event.ID, fmt.Sprintf("Song %d", i), "Band")
		ids = append(ids, r.ID)
	}
	for i, status := range []string{
		model.StatusAccepted,
		model.StatusAccepted,
		model.StatusRejected,
		model.StatusLater5To15,
		model.StatusLater15To30,
	} {
		_, err := requests.UpdateStatus(ids[i], status)
		require.NoError(t, err)
	}

	stats := requests.StatsForEvent(event.ID)
	assert.Equal(t, 6, stats.TotalRequests)
	assert.Equal(t, len(requests.ListForEvent(event.ID, model.StatusAccepted)), stats.AcceptedRequests)
	assert.Equal(t, len(requests.ListForEvent(event.ID, model.StatusRejected)), stats.RejectedRequests)
	assert.Equal(t, len(requests.ListForEvent(event.ID, model.StatusLater)), stats.LaterRequests)
}

func TestTopTracksCountsAndTieOrder(t *testing.T) {
	_, requests, event := newStoresWithActiveEvent(t)

	submit(t, requests, event.ID, "Song A", "Band X")
	submit(t, requests, event.ID, "Tie One", "Band T")
	submit(t, requests, event.ID, "Song A", "Band X")
	submit(t, requests, event.ID, "Tie Two", "Band T")

	top := requests.StatsForEvent(event.ID).TopTracks
	require.Len(t, top, 3)
	assert.Equal(t, model.TrackCount{TrackName: "Song A", ArtistName: "Band X", Count: 2}, top[0])
	// Equal counts keep first-submission order.
	assert.Equal(t, "Tie One", top[1].TrackName)
	assert.Equal(t, "Tie Two", top[2].TrackName)
}

func TestTopTracksGroupingIsCaseSensitive(t *testing.T) {
	_, requests, event := newStoresWithActiveEvent(t)

	submit(t, requests, event.ID, "song a", "band x")
	submit(t, requests, event.ID, "Song A", "band x")

	top := requests.StatsForEvent(event.ID).TopTracks
	assert.Len(t, top, 2)
}

func TestTopTracksPerEventCap(t *testing.T) {
	_, requests, event := newStoresWithActiveEvent(t)

	for i := 0; i < 15; i++ {
		submit(t, requests, event.ID, fmt.Sprintf("Song %d", i), "Band")
	}

	top := requests.StatsForEvent(event.ID).TopTracks
	assert.Len(t, top, 10)
}

func TestGlobalTopTracks(t *testing.T) {
	events, requests, event := newStoresWithActiveEvent(t)

	submit(t, requests, event.ID, "Song A", "Band X")
	submit(t, requests, event.ID, "Song A", "Band X")
	_, err := events.End(event.ID)
	require.NoError(t, err)

	second, err := events.Create(model.CreateEventRequest{Name: "Next"})
	require.NoError(t, err)
	submit(t, requests, second.ID, "Song A", "Band X")
	submit(t, requests, second.ID, "Song B", "Band Y")

	top := requests.GlobalTopTracks(0)
	require.NotEmpty(t, top)
	assert.Equal(t, model.TrackCount{TrackName: "Song A", ArtistName: "Band X", Count: 3}, top[0])

	limited := requests.GlobalTopTracks(1)
	assert.Len(t, limited, 1)
}

func TestGlobalTopTracksDefaultCap(t *testing.T) {
	_, requests, event := newStoresWithActiveEvent(t)

	for i := 0; i < 25; i++ {
		submit(t, requests, event.ID, fmt.Sprintf("Song %d", i), "Band")
	}

	assert.Len(t, requests.GlobalTopTracks(0), 20)
}
