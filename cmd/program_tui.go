// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/Thermoquad/scumloader/pkg/loader"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
)

// Messages
type progressMsg loader.Progress

type finishedMsg struct {
	res *loader.Result
	err error
}

// programModel renders the upload progress
type programModel struct {
	fileName    string
	connInfo    string
	bar         progress.Model
	step        string
	transferred int
	total       int
	elapsed     time.Duration
	finished    bool
	quitPending bool
	res         *loader.Result
	err         error
}

func newProgramModel(fileName, connInfo string) programModel {
	return programModel{
		fileName: fileName,
		connInfo: connInfo,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		step:     loader.StepStart,
	}
}

func (m programModel) Init() tea.Cmd {
	return nil
}

func (m programModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			// A running session cannot be cancelled; it ends on its own or
			// at the next read timeout.
			m.quitPending = true
		}

	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(msg.Width-12, 60))

	case progressMsg:
		m.step = msg.Step
		m.transferred = msg.Transferred
		m.total = msg.Total
		m.elapsed = msg.Elapsed

	case finishedMsg:
		m.finished = true
		m.res = msg.res
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m programModel) percent() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.transferred) / float64(m.total)
}

func (m programModel) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("SCUMLOADER"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | %s", m.fileName, m.connInfo)))
	s.WriteString("\n\n ")

	s.WriteString(m.bar.ViewAs(m.percent()))
	s.WriteString("\n\n")

	s.WriteString(fmt.Sprintf(" %s %s  %s %s  %s %s\n",
		labelStyle.Render("Step:"), valueStyle.Render(m.step),
		labelStyle.Render("Bytes:"), valueStyle.Render(fmt.Sprintf("%d/%d", m.transferred, m.total)),
		labelStyle.Render("Elapsed:"), valueStyle.Render(formatElapsed(m.elapsed))))

	if m.quitPending && !m.finished {
		s.WriteString(headerStyle.Render(" Waiting for the programmer to finish the current upload..."))
		s.WriteString("\n")
	}
	if m.finished {
		s.WriteString("\n")
	}
	return s.String()
}

// runProgramTUI runs the session while rendering a progress bar. The
// session reports through Program.Send from its own goroutine and always
// runs to completion, so its transport is closed before this returns.
func runProgramTUI(fileName, connInfo string, newSession func(loader.ProgressFunc) *loader.Session, opts ...tea.ProgramOption) (*loader.Result, error) {
	p := tea.NewProgram(newProgramModel(fileName, connInfo), opts...)
	done := make(chan finishedMsg, 1)

	go func() {
		s := newSession(func(pr loader.Progress) {
			p.Send(progressMsg(pr))
		})
		res, err := s.Run()
		done <- finishedMsg{res: res, err: err}
		p.Send(finishedMsg{res: res, err: err})
	}()

	if _, err := p.Run(); err != nil {
		log.Warn().Err(err).Msg("progress display stopped")
	}

	out := <-done
	return out.res, out.err
}

// formatElapsed formats a duration to millisecond precision
func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}
