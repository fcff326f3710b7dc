package memory

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/austiecodes/curator/internal/memory/memtypes"
	"github.com/austiecodes/curator/internal/memory/retrieval"
)

func (m *Model) selected() bool {
	item, ok := m.List.SelectedItem().(MemoryListItem)
	if !ok {
		return false
	}
	m.SelectedMemory = &item.Memory
	return true
}

func (m *Model) updateMemoryList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && m.List.FilterState() != list.Filtering {
		switch key.String() {
		case "enter":
			if m.selected() {
				m.Screen = ScreenMemoryDetail
			}
			return *m, nil

		case "a":
			m.TextInputs = createReviewInputs()
			m.FocusedInput = 0
			m.Screen = ScreenReviewAdd
			return *m, m.TextInputs[0].Focus()

		case "d":
			if m.selected() {
				m.Screen = ScreenConfirmDelete
			}
			return *m, nil

		case "t":
			m.filter = (m.filter + 1) % len(typeFilters)
			m.StatusMsg = "Loading memories..."
			return *m, m.reload()
		}
	}

	var cmd tea.Cmd
	m.List, cmd = m.List.Update(msg)
	return *m, cmd
}

func (m *Model) updateMemoryDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "d" {
		m.Screen = ScreenConfirmDelete
	}
	return *m, nil
}

func (m *Model) updateReviewAdd(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			m.TextInputs[m.FocusedInput].Blur()
			m.FocusedInput = (m.FocusedInput + 1) % len(m.TextInputs)
			return *m, m.TextInputs[m.FocusedInput].Focus()

		case "shift+tab", "up":
			m.TextInputs[m.FocusedInput].Blur()
			m.FocusedInput = (m.FocusedInput - 1 + len(m.TextInputs)) % len(m.TextInputs)
			return *m, m.TextInputs[m.FocusedInput].Focus()

		case "enter":
			in, err := m.reviewInput()
			if err != nil {
				m.Err = err
				return *m, nil
			}
			m.Err = nil
			m.StatusMsg = "Saving..."
			return *m, saveReview(m.deps.Reviews, in)
		}
	}

	// Update focused text input
	var cmd tea.Cmd
	m.TextInputs[m.FocusedInput], cmd = m.TextInputs[m.FocusedInput].Update(msg)
	return *m, cmd
}

func (m *Model) reviewInput() (retrieval.ReviewInput, error) {
	title := strings.TrimSpace(m.TextInputs[0].Value())
	if title == "" {
		return retrieval.ReviewInput{}, fmt.Errorf("movie title is required")
	}
	rating, err := parseRating(m.TextInputs[1].Value())
	if err != nil {
		return retrieval.ReviewInput{}, err
	}
	return retrieval.ReviewInput{
		UserID: m.userID,
		Title:  title,
		Text:   strings.TrimSpace(m.TextInputs[2].Value()),
		Rating: rating,
	}, nil
}

func (m *Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "y", "Y":
			m.StatusMsg = "Deleting..."
			return *m, deleteMemory(m.deps.Store, m.SelectedMemory.ID)

		case "n", "N":
			m.backToList()
			return *m, nil
		}
	}
	return *m, nil
}

func (m *Model) renderView() string {
	if m.Quitting {
		return "Goodbye!\n"
	}

	var s strings.Builder

	switch m.Screen {
	case ScreenMemoryList:
		if len(m.Memories) == 0 {
			s.WriteString(TitleStyle.Render(m.listTitle()))
			s.WriteString("\n\n")
			s.WriteString(SubtitleStyle.Render("No memories stored yet."))
			s.WriteString("\n\n")
			s.WriteString(HelpStyle.Render("Press 'a' to add a review, 't' to change type, 'q' to quit"))
		} else {
			s.WriteString(m.List.View())
		}

	case ScreenMemoryDetail:
		if m.SelectedMemory != nil {
			m.renderDetail(&s, m.SelectedMemory)
			s.WriteString(HelpStyle.Render("Press 'd' to delete, Esc to go back"))
		}

	case ScreenReviewAdd:
		s.WriteString(TitleStyle.Render("Add Review for " + m.userID))
		s.WriteString("\n\n")
		for i, label := range []string{"Title (required)", "Rating", "Review"} {
			s.WriteString(InputLabelStyle.Render(label))
			s.WriteString("\n")
			s.WriteString(m.TextInputs[i].View())
			s.WriteString("\n\n")
		}
		s.WriteString(HelpStyle.Render("Press Enter to save, Esc to cancel, Tab to navigate"))

	case ScreenConfirmDelete:
		s.WriteString(WarningStyle.Render("Confirm Delete"))
		s.WriteString("\n\n")
		s.WriteString("Are you sure you want to delete this memory?\n\n")
		if m.SelectedMemory != nil {
			s.WriteString(DetailValueStyle.Render(m.SelectedMemory.Document))
			s.WriteString("\n\n")
		}
		s.WriteString(HelpStyle.Render("Press 'y' to confirm, 'n' or Esc to cancel"))
	}

	if m.StatusMsg != "" {
		s.WriteString("\n\n")
		s.WriteString(SubtitleStyle.Render(m.StatusMsg))
	}

	if m.Err != nil {
		s.WriteString("\n\n")
		s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.Err)))
	}

	return s.String()
}

func (m *Model) renderDetail(s *strings.Builder, mem *memtypes.StoredMemory) {
	field := func(label, value string) {
		s.WriteString(DetailLabelStyle.Render(label))
		s.WriteString(" ")
		s.WriteString(DetailValueStyle.Render(value))
		s.WriteString("\n\n")
	}

	s.WriteString(TitleStyle.Render("Memory Detail"))
	s.WriteString(" ")
	s.WriteString(TypeStyle.Render(string(mem.MemoryType)))
	s.WriteString("\n\n")

	switch mem.MemoryType {
	case memtypes.TypeUserReview:
		field("Movie:", mem.MovieTitle)
		rating := "not rated"
		if mem.Rating != nil {
			rating = fmt.Sprintf("%.1f/10", *mem.Rating)
		}
		field("Rating:", rating)
		field("Review:", mem.ReviewText)
	case memtypes.TypeConversation:
		field("Agent:", mem.AgentType)
		field("Query:", mem.QueryText)
		field("Response:", mem.ResponseText)
	}

	field("ID:", mem.ID)
	field("Created:", mem.CreatedAt.Format("2006-01-02 15:04:05"))
	field("Embedding:", fmt.Sprintf("%s/%s (%d dims)", mem.Provider, mem.ModelID, mem.Dim))
}
