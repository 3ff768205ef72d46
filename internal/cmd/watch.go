package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/triad/internal/debate"
	"github.com/Iron-Ham/triad/internal/store"
	"github.com/Iron-Ham/triad/internal/util"
)

var watchCmd = &cobra.Command{
	Use:   "watch <session-id>",
	Short: "Watch a running debate live",
	Long: `Follow a debate session in the terminal, refreshing as rounds
complete. The view exits on its own once the session reaches a terminal
state; press q to leave earlier.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	// Fail fast before entering the alternate screen.
	if _, err := st.LoadSession(cmd.Context(), args[0]); err != nil {
		return err
	}

	model := newWatchModel(st, args[0])
	program := tea.NewProgram(model, tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("watch view failed: %w", err)
	}
	return nil
}

// ----- Styles -----

var (
	watchTitleStyle  = lipgloss.NewStyle().Bold(true)
	watchLabelStyle  = lipgloss.NewStyle().Faint(true)
	watchGoodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	watchBadStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	watchAccentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

const watchRefreshInterval = time.Second

// ----- Messages -----

type watchTickMsg time.Time

type watchSessionMsg struct {
	session *debate.Session
	err     error
}

// ----- Model -----

type watchModel struct {
	store     *store.Store
	sessionID string

	spinner spinner.Model
	session *debate.Session
	loadErr error
}

func newWatchModel(st *store.Store, sessionID string) watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = watchAccentStyle
	return watchModel{
		store:     st,
		sessionID: sessionID,
		spinner:   sp,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadSession(), watchTick())
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case watchTickMsg:
		return m, tea.Batch(m.loadSession(), watchTick())

	case watchSessionMsg:
		m.session = msg.session
		m.loadErr = msg.err
		if m.session != nil && m.session.Terminal() {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(watchTitleStyle.Render("triad watch"))
	b.WriteString("  ")
	b.WriteString(watchLabelStyle.Render(m.sessionID))
	b.WriteString("\n\n")

	if m.loadErr != nil {
		b.WriteString(watchBadStyle.Render(fmt.Sprintf("cannot read session: %v", m.loadErr)))
		b.WriteString("\n")
		return b.String()
	}
	if m.session == nil {
		b.WriteString(m.spinner.View())
		b.WriteString(" loading...\n")
		return b.String()
	}

	s := m.session
	fmt.Fprintf(&b, "%s %s\n", watchLabelStyle.Render("problem:"), util.Ellipsize(s.Problem, 80))
	fmt.Fprintf(&b, "%s %d/%d\n", watchLabelStyle.Render("rounds:"), len(s.Rounds), s.Config.MaxRounds)
	fmt.Fprintf(&b, "%s %s / %.0f\n", watchLabelStyle.Render("voting:"), scoreCell(s.VotingScore, s.Config.VotingThreshold, true), s.Config.VotingThreshold)
	fmt.Fprintf(&b, "%s %s / %.0f\n", watchLabelStyle.Render("uncertainty:"), scoreCell(s.UncertaintyLevel, s.Config.UncertaintyThreshold, false), s.Config.UncertaintyThreshold)
	b.WriteString("\n")

	for i := range s.Rounds {
		round := &s.Rounds[i]
		fmt.Fprintf(&b, "  round %d: voting %.1f, uncertainty %.1f, trend %s\n",
			round.Number, round.Synthesis.VotingScore, round.Synthesis.UncertaintyLevel, round.Synthesis.Convergence.Trend)
	}
	if len(s.Rounds) > 0 {
		b.WriteString("\n")
	}

	switch s.Status {
	case debate.StatusActive:
		fmt.Fprintf(&b, "%s debating...\n", m.spinner.View())
	case debate.StatusConverged:
		b.WriteString(watchGoodStyle.Render("converged"))
		b.WriteString("\n")
	case debate.StatusEscalated:
		b.WriteString(watchBadStyle.Render("escalated: " + s.EscalationReason))
		b.WriteString("\n")
	}

	b.WriteString(watchLabelStyle.Render("\npress q to quit\n"))
	return b.String()
}

func (m watchModel) loadSession() tea.Cmd {
	return func() tea.Msg {
		session, err := m.store.LoadSession(context.Background(), m.sessionID)
		return watchSessionMsg{session: session, err: err}
	}
}

func watchTick() tea.Cmd {
	return tea.Tick(watchRefreshInterval, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}

// scoreCell colors a score by whether it satisfies its threshold.
func scoreCell(value, threshold float64, higherIsBetter bool) string {
	text := fmt.Sprintf("%.1f", value)
	ok := value >= threshold
	if !higherIsBetter {
		ok = value <= threshold
	}
	if ok {
		return watchGoodStyle.Render(text)
	}
	return watchBadStyle.Render(text)
}
