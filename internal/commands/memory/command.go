package memory

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/austiecodes/curator/internal/commands/cmdutil"
)

var userID string

// MemoryCmd opens the memory browser for one user.
var MemoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Browse a user's memories interactively",
	Long:  `Open an interactive TUI to view a user's reviews and conversations, add reviews and delete memories.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := run(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error running memory browser: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	MemoryCmd.Flags().StringVarP(&userID, "user", "u", "", "user whose memories are shown")
}

func run(cmd *cobra.Command) error {
	user := strings.TrimSpace(userID)
	if user == "" {
		return errors.New("--user is required")
	}

	// the alt screen owns the terminal
	a, err := cmdutil.Open(cmd, io.Discard)
	if err != nil {
		return err
	}
	defer a.Close()

	p := tea.NewProgram(initialModel(Deps{Store: a.Store, Reviews: a.Gateway}, user), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
