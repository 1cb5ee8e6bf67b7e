package logger

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Severity 诊断消息级别
type Severity int

const (
	// SeverityVerbose 仅在 -vvv 时展示
	SeverityVerbose Severity = iota
	// SeverityNotice 普通提示
	SeverityNotice
	// SeverityWarning 警告，不中断解析
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityVerbose:
		return "verbose"
	case SeverityNotice:
		return "notice"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Diagnostics 是解析过程中非致命消息的接收者
type Diagnostics interface {
	Warning(msg string)
	Notice(msg string)
	Verbose(msg string)
}

// Entry 一条诊断消息
type Entry struct {
	Severity Severity
	Message  string
}

// Collector 记录所有诊断消息，主要用于测试
type Collector struct {
	mu      sync.Mutex
	entries []Entry
}

// NewCollector 创建 Collector
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) add(s Severity, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, Entry{Severity: s, Message: msg})
}

// Warning 记录警告
func (c *Collector) Warning(msg string) { c.add(SeverityWarning, msg) }

// Notice 记录提示
func (c *Collector) Notice(msg string) { c.add(SeverityNotice, msg) }

// Verbose 记录详细信息
func (c *Collector) Verbose(msg string) { c.add(SeverityVerbose, msg) }

// Entries 返回记录的副本
func (c *Collector) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Messages 返回指定级别的消息
func (c *Collector) Messages(s Severity) []string {
	var msgs []string
	for _, e := range c.Entries() {
		if e.Severity == s {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

// ZerologDiagnostics 将诊断消息写入 zerolog
type ZerologDiagnostics struct {
	log zerolog.Logger
}

// NewZerologDiagnostics 基于给定 logger 创建诊断接收者
func NewZerologDiagnostics(l zerolog.Logger) *ZerologDiagnostics {
	return &ZerologDiagnostics{log: l}
}

// Warning 写入 warn 级别
func (z *ZerologDiagnostics) Warning(msg string) { z.log.Warn().Msg(msg) }

// Notice 写入 info 级别
func (z *ZerologDiagnostics) Notice(msg string) { z.log.Info().Msg(msg) }

// Verbose 写入 trace 级别
func (z *ZerologDiagnostics) Verbose(msg string) { z.log.Trace().Msg(msg) }

// Tee 将消息分发到多个接收者
type Tee []Diagnostics

// Warning 分发警告
func (t Tee) Warning(msg string) {
	for _, d := range t {
		d.Warning(msg)
	}
}

// Notice 分发提示
func (t Tee) Notice(msg string) {
	for _, d := range t {
		d.Notice(msg)
	}
}

// Verbose 分发详细信息
func (t Tee) Verbose(msg string) {
	for _, d := range t {
		d.Verbose(msg)
	}
}

// Discard 丢弃所有消息
var Discard Diagnostics = discard{}

type discard struct{}

func (discard) Warning(string) {}
func (discard) Notice(string)  {}
func (discard) Verbose(string) {}
