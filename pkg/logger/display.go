package logger

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Display Ansible 风格的诊断输出
// [WARNING]: ... 始终输出，提示在 -v 时输出，详细信息在 -vvv 时输出
type Display struct {
	mu        sync.Mutex
	out       io.Writer
	verbosity int

	warnStyle    lipgloss.Style
	errorStyle   lipgloss.Style
	noticeStyle  lipgloss.Style
	verboseStyle lipgloss.Style
}

// NewDisplay 创建 Ansible 风格的输出
func NewDisplay(out io.Writer, verbosity int) *Display {
	r := lipgloss.NewRenderer(out)
	return &Display{
		out:          out,
		verbosity:    verbosity,
		warnStyle:    r.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
		errorStyle:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		noticeStyle:  r.NewStyle().Foreground(lipgloss.Color("6")),
		verboseStyle: r.NewStyle().Foreground(lipgloss.Color("4")),
	}
}

func (d *Display) println(style lipgloss.Style, line string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.out, style.Render(line))
}

// Warning 打印警告信息
func (d *Display) Warning(msg string) {
	d.println(d.warnStyle, "[WARNING]: "+msg)
}

// Notice 打印提示信息
func (d *Display) Notice(msg string) {
	if d.verbosity < 1 {
		return
	}
	d.println(d.noticeStyle, msg)
}

// Verbose 打印详细信息
func (d *Display) Verbose(msg string) {
	if d.verbosity < 3 {
		return
	}
	d.println(d.verboseStyle, msg)
}

// Error 打印错误信息
func (d *Display) Error(msg string) {
	d.println(d.errorStyle, "[ERROR]: "+msg)
}
