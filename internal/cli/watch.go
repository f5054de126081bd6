package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/spf13/cobra"

	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/tap"
)

// watchPollInterval is how often the watch view polls the job phase.
const watchPollInterval = 2 * time.Second

// JobWatchModel is the bubbletea model that follows a UWS job through its
// lifecycle.
type JobWatchModel struct {
	Job     *tap.Job
	Phase   string
	Err     error
	Started time.Time
	Frame   int

	// Quit is set when the user bailed out with the job still running.
	Quit bool

	ctx context.Context
}

// NewJobWatchModel creates a watch model for the given job. Phase polls run
// under ctx, so cancelling it stops the watch.
func NewJobWatchModel(ctx context.Context, job *tap.Job) JobWatchModel {
	return JobWatchModel{
		Job:     job,
		Phase:   job.LastPhase(),
		Started: time.Now(),
		ctx:     ctx,
	}
}

type phaseMsg struct {
	phase string
	err   error
}

type frameMsg struct{}

func (m JobWatchModel) pollPhase() tea.Msg {
	phase, err := m.Job.Phase(m.ctx)
	return phaseMsg{phase: phase, err: err}
}

func nextFrame() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

func nextPoll(m JobWatchModel) tea.Cmd {
	return tea.Tick(watchPollInterval, func(time.Time) tea.Msg {
		return m.pollPhase()
	})
}

func (m JobWatchModel) Init() tea.Cmd {
	return tea.Batch(m.pollPhase, nextFrame())
}

func (m JobWatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quit = true
			return m, tea.Quit
		}
	case phaseMsg:
		if msg.err != nil {
			m.Err = msg.err
			return m, tea.Quit
		}
		m.Phase = msg.phase
		if tap.TerminalPhase(m.Phase) {
			return m, tea.Quit
		}
		return m, nextPoll(m)
	case frameMsg:
		m.Frame = (m.Frame + 1) % len(spinnerFrames)
		return m, nextFrame()
	}
	return m, nil
}

func (m JobWatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Watching job " + m.Job.ID))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit (job keeps running)"))
	b.WriteString("\n\n")

	phase := m.Phase
	if phase == "" {
		phase = "..."
	}

	var marker string
	switch {
	case m.Err != nil:
		marker = styleIconError.Render(iconError)
	case m.Phase == tap.PhaseCompleted:
		marker = styleIconSuccess.Render(iconSuccess)
	case tap.TerminalPhase(m.Phase):
		marker = styleIconError.Render(iconError)
	default:
		marker = styleIconSpinner.Render(spinnerFrames[m.Frame])
	}

	b.WriteString(fmt.Sprintf("  %s %s %s\n", marker,
		StyleValue.Render(phase),
		StyleDim.Render(fmt.Sprintf("(%s)", time.Since(m.Started).Round(time.Second)))))

	return b.String()
}

// watchJob runs the watch view for a job and, once the job completes,
// fetches and emits its result.
func (c *CLI) watchJob(cmd *cobra.Command, job *tap.Job, out *outputOpts) error {
	p := tea.NewProgram(NewJobWatchModel(cmd.Context(), job),
		tea.WithContext(cmd.Context()),
		tea.WithOutput(os.Stderr),
	)
	final, err := p.Run()
	if err != nil {
		return err
	}

	m, ok := final.(JobWatchModel)
	if !ok {
		return nil
	}
	if m.Err != nil {
		return m.Err
	}
	if m.Quit {
		printInfo("Job %s left running", job.ID)
		printNextStep("Pick it back up", fmt.Sprintf("skyquery job status %s", job.URL))
		return nil
	}

	switch m.Phase {
	case tap.PhaseCompleted:
		res, err := job.Result(cmd.Context())
		if err != nil {
			return err
		}
		defer res.Table.Release()
		printSuccess("Job %s completed with %d rows", job.ID, res.Table.NumRows())
		if res.Overflow {
			printWarning("Result truncated at the service's row limit")
		}
		return out.emit(res.Table)
	case tap.PhaseAborted:
		return errors.New(errors.ErrCodeJobAborted, "job %s was aborted", job.ID)
	default:
		// ERROR and friends; Wait resolves the service's error summary.
		_, err := job.Wait(cmd.Context())
		return err
	}
}
