package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/austiecodes/curator/internal/memory/memtypes"
	"github.com/austiecodes/curator/internal/memory/retrieval"
)

func createMemoryList(memories []memtypes.StoredMemory, title string, width, height int) list.Model {
	items := make([]list.Item, len(memories))
	for i, mem := range memories {
		items[i] = MemoryListItem{Memory: mem}
	}

	delegate := list.NewDefaultDelegate()
	w := max(min(width-4, 80), 40)
	h := max(min(height-6, 20), 10)

	l := list.New(items, delegate, w, h)
	l.Title = title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(true)
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{
			key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add review")),
			key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
			key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "type")),
		}
	}
	return l
}

func createReviewInputs() []textinput.Model {
	inputs := make([]textinput.Model, 3)

	inputs[0] = textinput.New()
	inputs[0].Placeholder = "Movie title"
	inputs[0].CharLimit = 300
	inputs[0].Width = 60

	inputs[1] = textinput.New()
	inputs[1].Placeholder = "0-10 (optional)"
	inputs[1].CharLimit = 4
	inputs[1].Width = 10

	inputs[2] = textinput.New()
	inputs[2].Placeholder = "What did you think? (optional)"
	inputs[2].CharLimit = 1000
	inputs[2].Width = 60

	return inputs
}

func loadMemories(s Store, userID string, memoryType memtypes.MemoryType) tea.Cmd {
	return func() tea.Msg {
		memories, err := s.RecentMemories(context.Background(), memtypes.MemoryFilter{
			UserID:     userID,
			MemoryType: memoryType,
		}, 0)
		return MemoriesLoadedMsg{Memories: memories, Err: err}
	}
}

func saveReview(r ReviewRecorder, in retrieval.ReviewInput) tea.Cmd {
	return func() tea.Msg {
		return ReviewSavedMsg{Err: r.RecordReview(context.Background(), in)}
	}
}

func deleteMemory(s Store, id string) tea.Cmd {
	return func() tea.Msg {
		return MemoryDeletedMsg{Err: s.DeleteMemory(context.Background(), id)}
	}
}

// parseRating accepts an empty field as "not rated".
func parseRating(input string) (*float64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	r, err := strconv.ParseFloat(input, 64)
	if err != nil || r < 0 || r > 10 {
		return nil, fmt.Errorf("rating must be a number from 0 to 10")
	}
	return &r, nil
}
