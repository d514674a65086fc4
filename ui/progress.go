package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Task 是在 spinner 后台执行的耗时操作
type Task func(ctx context.Context) (any, error)

// ProgressModel 在执行耗时操作时展示 Spinner
// 完成后通过 tea.Quit 退出，将结果或 err 写回自身字段
type ProgressModel struct {
	spinner spinner.Model
	ctx     context.Context
	task    Task
	label   string

	done   bool
	result any
	err    error
}

// NewProgressModel creates a model that runs task while showing label.
func NewProgressModel(ctx context.Context, label string, task Task) *ProgressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = DefaultStyles().Progress
	return &ProgressModel{
		spinner: sp,
		ctx:     ctx,
		task:    task,
		label:   label,
	}
}

// Init 启动 spinner 和任务
func (m *ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, runTask(m.ctx, m.task))
}

// Update 处理消息
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = context.Canceled
			return m, tea.Quit
		}
	case taskDoneMsg:
		m.done = true
		m.result, m.err = msg.result, msg.err
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View 显示 spinner 与当前状态
func (m *ProgressModel) View() string {
	if m.done {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(DefaultColors().Blue)
	return m.spinner.View() + " " + style.Render(m.label)
}

// Result 返回任务结果
func (m *ProgressModel) Result() (any, error) {
	return m.result, m.err
}

type taskDoneMsg struct {
	result any
	err    error
}

func runTask(ctx context.Context, task Task) tea.Cmd {
	return func() tea.Msg {
		result, err := task(ctx)
		return taskDoneMsg{result: result, err: err}
	}
}

// RunProgress runs task under a spinner program and returns its result.
// opts are passed to tea.NewProgram.
func RunProgress(ctx context.Context, label string, task Task, opts ...tea.ProgramOption) (any, error) {
	m := NewProgressModel(ctx, label, task)
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return nil, err
	}
	return final.(*ProgressModel).Result()
}
