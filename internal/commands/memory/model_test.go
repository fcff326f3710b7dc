package memory

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/austiecodes/curator/internal/memory/memtypes"
	"github.com/austiecodes/curator/internal/memory/retrieval"
)

type fakeStore struct {
	memories []memtypes.StoredMemory
	filters  []memtypes.MemoryFilter
	deleted  []string
}

func (f *fakeStore) RecentMemories(_ context.Context, filter memtypes.MemoryFilter, _ int) ([]memtypes.StoredMemory, error) {
	f.filters = append(f.filters, filter)
	return f.memories, nil
}

func (f *fakeStore) DeleteMemory(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeReviews struct {
	got []retrieval.ReviewInput
}

func (f *fakeReviews) RecordReview(_ context.Context, in retrieval.ReviewInput) error {
	f.got = append(f.got, in)
	return nil
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func review(id, title string) memtypes.StoredMemory {
	rating := 8.0
	return memtypes.StoredMemory{
		ID:         id,
		UserID:     "u1",
		MemoryType: memtypes.TypeUserReview,
		MovieTitle: title,
		Rating:     &rating,
		CreatedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func loaded(t *testing.T, store *fakeStore) Model {
	t.Helper()
	m := initialModel(Deps{Store: store, Reviews: &fakeReviews{}}, "u1")
	m, _ = send(t, m, m.Init()())
	return m
}

func TestParseRating(t *testing.T) {
	r, err := parseRating("")
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = parseRating(" 7.5 ")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 7.5, *r)

	for _, bad := range []string{"11", "-1", "great"} {
		_, err = parseRating(bad)
		assert.Error(t, err, bad)
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "first", firstLine("first\nsecond"))
	long := ""
	for range 100 {
		long += "é"
	}
	assert.Equal(t, 70, len([]rune(firstLine(long))))
}

func TestTypeFilterCycles(t *testing.T) {
	store := &fakeStore{memories: []memtypes.StoredMemory{review("m1", "Alien")}}
	m := loaded(t, store)
	require.Len(t, m.Memories, 1)

	m, cmd := send(t, m, keyMsg("t"))
	require.NotNil(t, cmd)
	_, _ = send(t, m, cmd())

	require.Len(t, store.filters, 2)
	assert.Equal(t, memtypes.MemoryType(""), store.filters[0].MemoryType)
	assert.Equal(t, typeFilters[1], store.filters[1].MemoryType)
	assert.Equal(t, "u1", store.filters[1].UserID)
}

func TestDeleteFlow(t *testing.T) {
	store := &fakeStore{memories: []memtypes.StoredMemory{review("m1", "Alien")}}
	m := loaded(t, store)

	m, _ = send(t, m, keyMsg("d"))
	assert.Equal(t, ScreenConfirmDelete, m.Screen)
	assert.Contains(t, m.View(), "Confirm Delete")

	m, cmd := send(t, m, keyMsg("y"))
	require.NotNil(t, cmd)
	m, _ = send(t, m, cmd())

	assert.Equal(t, []string{"m1"}, store.deleted)
	assert.Equal(t, ScreenMemoryList, m.Screen)
	assert.Equal(t, "Memory deleted!", m.StatusMsg)
}

func TestAddReviewFlow(t *testing.T) {
	reviews := &fakeReviews{}
	m := initialModel(Deps{Store: &fakeStore{}, Reviews: reviews}, "u1")
	m, _ = send(t, m, m.Init()())

	m, _ = send(t, m, keyMsg("a"))
	require.Equal(t, ScreenReviewAdd, m.Screen)

	// q is text on the form, not quit
	m, _ = send(t, m, keyMsg("q"))
	assert.Equal(t, ScreenReviewAdd, m.Screen)
	m.TextInputs[0].SetValue("Heat")

	m, _ = send(t, m, keyMsg("tab"))
	assert.Equal(t, 1, m.FocusedInput)
	m.TextInputs[1].SetValue("12")

	m, cmd := send(t, m, keyMsg("enter"))
	assert.Nil(t, cmd)
	assert.Error(t, m.Err)

	m.TextInputs[1].SetValue("9")
	m.TextInputs[2].SetValue("tense")
	m, cmd = send(t, m, keyMsg("enter"))
	require.NotNil(t, cmd)
	m, _ = send(t, m, cmd())

	require.Len(t, reviews.got, 1)
	got := reviews.got[0]
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "Heat", got.Title)
	assert.Equal(t, "tense", got.Text)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 9.0, *got.Rating)
	assert.Equal(t, ScreenMemoryList, m.Screen)
}

func TestDetailView(t *testing.T) {
	m := loaded(t, &fakeStore{memories: []memtypes.StoredMemory{review("m1", "Alien")}})

	m, _ = send(t, m, keyMsg("enter"))
	require.Equal(t, ScreenMemoryDetail, m.Screen)
	view := m.View()
	assert.Contains(t, view, "Alien")
	assert.Contains(t, view, "8.0/10")

	m, _ = send(t, m, keyMsg("esc"))
	assert.Equal(t, ScreenMemoryList, m.Screen)
}
