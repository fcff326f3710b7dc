package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/austiecodes/curator/internal/memory/memtypes"
	"github.com/austiecodes/curator/internal/memory/retrieval"
)

// Store lists and deletes memories. Memories are never edited in place.
type Store interface {
	RecentMemories(ctx context.Context, filter memtypes.MemoryFilter, limit int) ([]memtypes.StoredMemory, error)
	DeleteMemory(ctx context.Context, id string) error
}

type ReviewRecorder interface {
	RecordReview(ctx context.Context, in retrieval.ReviewInput) error
}

type Deps struct {
	Store   Store
	Reviews ReviewRecorder
}

// Screen represents the current TUI screen
type Screen int

const (
	ScreenMemoryList Screen = iota
	ScreenMemoryDetail
	ScreenReviewAdd
	ScreenConfirmDelete
)

// typeFilters is the cycle behind the "t" key. The empty type shows both.
var typeFilters = []memtypes.MemoryType{"", memtypes.TypeUserReview, memtypes.TypeConversation}

func filterLabel(t memtypes.MemoryType) string {
	if t == "" {
		return "all"
	}
	return string(t)
}

// MemoryListItem implements list.Item interface for memory display
type MemoryListItem struct {
	Memory memtypes.StoredMemory
}

func (i MemoryListItem) Title() string {
	switch i.Memory.MemoryType {
	case memtypes.TypeUserReview:
		return i.Memory.MovieTitle
	default:
		return firstLine(i.Memory.QueryText)
	}
}

func (i MemoryListItem) Description() string {
	at := i.Memory.CreatedAt.Format("2006-01-02 15:04")
	switch i.Memory.MemoryType {
	case memtypes.TypeUserReview:
		if i.Memory.Rating != nil {
			return fmt.Sprintf("review · %.1f/10 · %s", *i.Memory.Rating, at)
		}
		return "review · " + at
	default:
		return fmt.Sprintf("%s · %s", i.Memory.AgentType, at)
	}
}

func (i MemoryListItem) FilterValue() string { return i.Memory.Document }

func firstLine(s string) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	if r := []rune(s); len(r) > 70 {
		return string(r[:67]) + "..."
	}
	return s
}

// Model is the Bubble Tea model for the memory command
type Model struct {
	deps   Deps
	userID string
	filter int

	Screen         Screen
	List           list.Model
	TextInputs     []textinput.Model
	FocusedInput   int
	SelectedMemory *memtypes.StoredMemory
	Memories       []memtypes.StoredMemory
	Err            error
	StatusMsg      string
	Quitting       bool
	Width          int
	Height         int
}

// MemoriesLoadedMsg is sent when memories are loaded from store
type MemoriesLoadedMsg struct {
	Memories []memtypes.StoredMemory
	Err      error
}

// ReviewSavedMsg is sent when a review is stored
type ReviewSavedMsg struct {
	Err error
}

// MemoryDeletedMsg is sent when a memory is deleted
type MemoryDeletedMsg struct {
	Err error
}
