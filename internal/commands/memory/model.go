package memory

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

func initialModel(deps Deps, userID string) Model {
	// Create an empty list initially, will be populated after load
	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 60, 14)
	l.Title = "Memories of " + userID
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(true)

	return Model{
		deps:      deps,
		userID:    userID,
		Screen:    ScreenMemoryList,
		List:      l,
		StatusMsg: "Loading memories...",
	}
}

func (m Model) listTitle() string {
	return "Memories of " + m.userID + " (" + filterLabel(typeFilters[m.filter]) + ")"
}

func (m Model) reload() tea.Cmd {
	return loadMemories(m.deps.Store, m.userID, typeFilters[m.filter])
}

func (m Model) Init() tea.Cmd {
	return m.reload()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.List.SetSize(min(msg.Width-4, 80), min(msg.Height-6, 20))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.Quitting = true
			return m, tea.Quit

		case "q":
			if m.Screen == ScreenReviewAdd || m.List.FilterState() == list.Filtering {
				break
			}
			if m.Screen == ScreenMemoryList {
				m.Quitting = true
				return m, tea.Quit
			}
			m.backToList()
			return m, nil

		case "esc":
			if m.Screen != ScreenMemoryList {
				m.backToList()
				return m, nil
			}
		}

	case MemoriesLoadedMsg:
		m.StatusMsg = ""
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.Memories = msg.Memories
		m.List = createMemoryList(m.Memories, m.listTitle(), m.Width, m.Height)
		return m, nil

	case ReviewSavedMsg:
		m.StatusMsg = ""
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.backToList()
		m.StatusMsg = "Review saved!"
		return m, m.reload()

	case MemoryDeletedMsg:
		m.StatusMsg = ""
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.backToList()
		m.StatusMsg = "Memory deleted!"
		return m, m.reload()
	}

	switch m.Screen {
	case ScreenMemoryList:
		return m.updateMemoryList(msg)
	case ScreenMemoryDetail:
		return m.updateMemoryDetail(msg)
	case ScreenReviewAdd:
		return m.updateReviewAdd(msg)
	case ScreenConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	return m, nil
}

func (m *Model) backToList() {
	m.Screen = ScreenMemoryList
	m.SelectedMemory = nil
	m.Err = nil
	m.StatusMsg = ""
}

func (m Model) View() string {
	return m.renderView()
}
