// Package tui renders reindexing progress with a live terminal view.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"semdex/internal/index"
	"semdex/internal/store"
)

type indexingModel struct {
	spinner spinner.Model
	root    string
	stage   string
	done    int
	total   int
	stats   *index.Stats
	err     error
	quitted bool
}

func newIndexingModel(root string) indexingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return indexingModel{
		spinner: sp,
		root:    root,
		stage:   "Scanning files",
	}
}

// progressMsg is sent while the reconcile is running.
type progressMsg struct {
	stage string
	done  int
	total int
}

// doneMsg is sent once the reconcile finishes.
type doneMsg struct {
	stats *index.Stats
	err   error
}

func (m indexingModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m indexingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitted = true
			return m, tea.Quit
		}
	case progressMsg:
		m.stage = msg.stage
		m.done = msg.done
		m.total = msg.total
		return m, nil
	case doneMsg:
		m.stats = msg.stats
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m indexingModel) View() string {
	s := "\n"
	s += titleStyle.Render("  Indexing "+m.root) + "\n\n"

	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n"
		return s
	}
	if m.stats != nil {
		s += successStyle.Render("  ✓ Index up to date") + "\n\n"
		s += fmt.Sprintf("  Files: %d total, %d chunked, %d skipped, %d removed\n",
			m.stats.FilesTotal, m.stats.FilesChunked, m.stats.FilesSkipped, m.stats.FilesRemoved)
		s += fmt.Sprintf("  Chunks inserted: %d\n", m.stats.ChunksInserted)
		return s
	}

	s += fmt.Sprintf("  %s %s\n", m.spinner.View(), m.stage)
	if m.total > 0 {
		s += fmt.Sprintf("  %d / %d\n", m.done, m.total)
	}
	s += "\n"
	s += dimStyle.Render("  This may take a while for large codebases... (q to abort)") + "\n"
	return s
}

// RunIndexing reconciles root against the store while showing live progress.
// Blocks until the run finishes or the user aborts.
func RunIndexing(ctx context.Context, st *store.Store, root string, opts index.Options) (*index.Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newIndexingModel(root))

	resultCh := make(chan doneMsg, 1)
	go func() {
		opts.OnProgress = func(stage string, done, total int) {
			p.Send(progressMsg{stage: stage, done: done, total: total})
		}
		stats, err := index.Reconcile(ctx, st, root, opts)
		msg := doneMsg{stats: stats, err: err}
		resultCh <- msg
		p.Send(msg)
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		<-resultCh
		return nil, err
	}
	if m, ok := final.(indexingModel); ok && m.quitted {
		cancel()
		<-resultCh
		return nil, context.Canceled
	}

	res := <-resultCh
	return res.stats, res.err
}
