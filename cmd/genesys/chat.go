package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"genesys/internal/dispatch"
	"genesys/internal/upload"
)

// chatCmd starts an interactive session about one file
var chatCmd = &cobra.Command{
	Use:   "chat <file>",
	Short: "Ask questions about a file interactively",
	Long: `Opens an interactive session about one file. Every question is answered
independently; earlier questions are not sent to the model.

Commands:
  /summary   show the file summary
  /quit      leave (also Esc or Ctrl+C)`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	f, err := readUpload(args[0], cfg.Server.MaxUploadBytes)
	if err != nil {
		return friendly(err)
	}

	a, err := newApp(context.Background(), cfg, false)
	if err != nil {
		return err
	}
	defer a.close()

	m := newChatModel(a.dispatcher, f, timeout, cfg.Analysis.AllRecords)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// exchange is one question and its outcome.
type exchange struct {
	question string
	answer   dispatch.Answer
	err      error
}

// answerMsg carries a finished dispatch back to the model.
type answerMsg struct {
	exchange
}

// maxShownExchanges bounds the history kept on screen.
const maxShownExchanges = 20

type chatModel struct {
	dispatcher *dispatch.Dispatcher
	file       upload.UploadedFile
	timeout    time.Duration
	allRecords bool

	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	history []exchange
	busy    bool
}

func newChatModel(d *dispatch.Dispatcher, f upload.UploadedFile, timeout time.Duration, allRecords bool) chatModel {
	ti := textinput.New()
	ti.Placeholder = "what are the sequence ids?"
	ti.Prompt = "› "
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return chatModel{
		dispatcher: d,
		file:       f,
		timeout:    timeout,
		allRecords: allRecords,
		input:      ti,
		spinner:    sp,
		renderer:   newChatRenderer(100),
	}
}

// newChatRenderer returns nil in plain mode; answers are then shown as is.
func newChatRenderer(width int) *glamour.TermRenderer {
	if plain {
		return nil
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width-4))
	if err != nil {
		return nil
	}
	return r
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}

	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 4
		m.renderer = newChatRenderer(msg.Width)

	case answerMsg:
		m.busy = false
		m.history = append(m.history, msg.exchange)
		if len(m.history) > maxShownExchanges {
			m.history = m.history[len(m.history)-maxShownExchanges:]
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles Enter: a slash command or a question.
func (m chatModel) submit() (tea.Model, tea.Cmd) {
	question := strings.TrimSpace(m.input.Value())
	if question == "" || m.busy {
		return m, nil
	}
	m.input.Reset()

	switch question {
	case "/quit", "/exit":
		return m, tea.Quit
	case "/summary":
		m.busy = true
		return m, tea.Batch(m.spinner.Tick, m.summarise())
	}

	m.busy = true
	return m, tea.Batch(m.spinner.Tick, m.ask(question))
}

// ask runs one dispatch off the UI goroutine.
func (m chatModel) ask(question string) tea.Cmd {
	d, f, timeout, allRecords := m.dispatcher, m.file, m.timeout, m.allRecords
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ans, err := d.Answer(ctx, dispatch.AnalysisRequest{
			Question:   question,
			File:       f,
			AllRecords: allRecords,
		})
		return answerMsg{exchange{question: question, answer: ans, err: err}}
	}
}

func (m chatModel) summarise() tea.Cmd {
	d, f, timeout := m.dispatcher, m.file, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		report, err := d.Process(ctx, f)
		ans := dispatch.Answer{Text: report.Summary, Path: dispatch.PathFast, FileType: report.Type}
		return answerMsg{exchange{question: "/summary", answer: ans, err: err}}
	}
}

func (m chatModel) View() string {
	var b strings.Builder
	b.WriteString(style(titleStyle, "GeneSys"))
	b.WriteString(" ")
	b.WriteString(style(labelStyle, fmt.Sprintf("%s · %d bytes", m.file.Name, m.file.Size())))
	b.WriteString("\n\n")

	for _, ex := range m.history {
		b.WriteString(style(promptStyle, "› "+ex.question))
		b.WriteString("\n")
		b.WriteString(m.renderExchange(ex))
		b.WriteString("\n")
	}

	if m.busy {
		b.WriteString(m.spinner.View())
		b.WriteString(" thinking…\n")
	} else {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString(style(labelStyle, "enter to ask · /summary · esc to quit"))
	return b.String()
}

func (m chatModel) renderExchange(ex exchange) string {
	if ex.err != nil {
		return style(errorStyle, dispatch.UserMessage(ex.err)) + "\n"
	}
	body := ex.answer.Text
	if ex.answer.Path != dispatch.PathModel {
		body = codeBlock(body)
	}

	text := body
	if m.renderer != nil {
		if out, err := m.renderer.Render(body); err == nil {
			text = out
		}
	}

	meta := string(ex.answer.Path)
	if ex.answer.Function != "" {
		meta += " · " + ex.answer.Function
	}
	return style(answerStyle, strings.TrimRight(text, "\n")) + "\n" + style(pathStyle, meta) + "\n"
}
