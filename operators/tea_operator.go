// Package operators contains output surfaces that watch a take while the
// director runs it: a terminal view, an MQTT frame stream and a desktop
// window.
package operators

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/teranos/snowcam"
)

var (
	stageStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	detailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	doneStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
)

// frameMsg carries one frame, already encoded as ANSI, to the program.
type frameMsg struct {
	ansi string
	info snowcam.FrameInfo
}

// finishMsg ends the program once the take is over.
type finishMsg struct {
	result *snowcam.StageResult
}

// teaModel shows the latest frame above a status bar.
type teaModel struct {
	frame    string
	info     snowcam.FrameInfo
	result   *snowcam.StageResult
	width    int
	quitting bool
	cancel   context.CancelFunc
}

func (m teaModel) Init() tea.Cmd { return nil }

func (m teaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case frameMsg:
		m.frame = msg.ansi
		m.info = msg.info
	case finishMsg:
		m.result = msg.result
		return m, tea.Quit
	}
	return m, nil
}

func (m teaModel) View() string {
	var b strings.Builder
	b.WriteString(m.frame)
	b.WriteString(m.status())
	b.WriteString("\n")
	return b.String()
}

// status renders "stage 12/90  [#####.....] 45% 680/1503".
func (m teaModel) status() string {
	if m.result != nil {
		state := "finished"
		switch {
		case m.result.Cancelled:
			state = "cancelled"
		case !m.result.Success:
			state = "failed: " + m.result.ErrorMessage
		}
		return doneStyle.Render(fmt.Sprintf("%s %s", m.result.Name, state)) +
			detailStyle.Render(fmt.Sprintf("  %d redraws in %s", m.result.Redraws, m.result.Duration.Round(time.Millisecond)))
	}
	if m.info.TotalFrames == 0 {
		return detailStyle.Render("waiting for the first frame, q to quit")
	}

	done := m.info.Index + 1
	return stageStyle.Render(m.info.Stage) +
		detailStyle.Render(fmt.Sprintf(" %d/%d  ", m.info.Frame+1, m.info.Frames)) +
		progressStyle.Render(progressBar(done, m.info.TotalFrames, 20)) +
		detailStyle.Render(fmt.Sprintf(" %d/%d", done, m.info.TotalFrames))
}

func progressBar(done, total, width int) string {
	if total <= 0 {
		return ""
	}
	filled := done * width / total
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat(".", width-filled), done*100/total)
}

// TeaOperator shows a take in the terminal. Frames are encoded as 24-bit
// half blocks on the director's goroutine and handed to the bubbletea
// program as strings, so the program never touches the frame buffer.
//
// Pressing q or ctrl+c calls the cancel func, which stops the run at the
// next frame boundary.
type TeaOperator struct {
	program *tea.Program
	cols    int
	every   int

	mu      sync.Mutex
	actions []snowcam.StageAction
}

// NewTeaOperator creates an operator drawing frames cols characters wide.
// cancel is called when the user quits; opts are passed to bubbletea.
func NewTeaOperator(cols int, cancel context.CancelFunc, opts ...tea.ProgramOption) *TeaOperator {
	if cols < 2 {
		cols = 80
	}
	model := teaModel{cancel: cancel}
	return &TeaOperator{
		program: tea.NewProgram(model, opts...),
		cols:    cols,
		every:   1,
	}
}

// WithEvery only redraws the terminal every n frames and on stage ends.
func (op *TeaOperator) WithEvery(n int) *TeaOperator {
	if n > 0 {
		op.every = n
	}
	return op
}

// Run starts the terminal program and blocks until the take finishes or
// the user quits.
func (op *TeaOperator) Run() error {
	op.recordInteraction("start", "terminal")
	_, err := op.program.Run()
	op.recordInteraction("stop", "terminal")
	return err
}

// OnFrame implements snowcam.Observer.
func (op *TeaOperator) OnFrame(info snowcam.FrameInfo) error {
	if info.Index%op.every != 0 && info.Frame != info.Frames-1 {
		return nil
	}
	if info.Image == nil {
		return snowcam.ErrNoFrame
	}
	msg := frameMsg{ansi: snowcam.FrameToANSI(info.Image, op.cols), info: info}
	msg.info.Image = nil
	op.program.Send(msg)
	return nil
}

// OnStageStart implements snowcam.StageObserver.
func (op *TeaOperator) OnStageStart(index int, stage snowcam.Stage) {
	op.recordInteraction("stage_start", stage.Name)
}

// OnStageEnd implements snowcam.StageObserver.
func (op *TeaOperator) OnStageEnd(record snowcam.StageRecord) {
	op.recordInteraction("stage_end", record.Name)
}

// OnFinish implements snowcam.Finisher; it ends the program.
func (op *TeaOperator) OnFinish(result *snowcam.StageResult) {
	op.program.Send(finishMsg{result: result})
}

// Close stops the program if it is still running.
func (op *TeaOperator) Close() {
	op.program.Quit()
}

// Actions returns what the terminal saw, in order.
func (op *TeaOperator) Actions() []snowcam.StageAction {
	op.mu.Lock()
	defer op.mu.Unlock()
	return append([]snowcam.StageAction(nil), op.actions...)
}

func (op *TeaOperator) recordInteraction(interactionType string, details interface{}) {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.actions = append(op.actions, snowcam.StageAction{
		Type:      interactionType,
		Timestamp: time.Now(),
		Details:   details,
		Result:    "success",
	})
}
