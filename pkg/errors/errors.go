package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorType 定义解析错误类型
type ErrorType int

const (
	// ErrMalformedDocument 文档为空或顶层不是 mapping
	ErrMalformedDocument ErrorType = iota
	// ErrWrongPluginIdentity plugin 字段与插件名不匹配
	ErrWrongPluginIdentity
	// ErrInvalidHostsShape hosts 既不是 list 也不是 mapping
	ErrInvalidHostsShape
	// ErrInvalidGroupsShape groups 不是 mapping
	ErrInvalidGroupsShape
	// ErrGroupCreation 无法创建组
	ErrGroupCreation
	// ErrInvalidSectionShape vars/children/groups 段格式错误
	ErrInvalidSectionShape
	// ErrInvalidHostPattern 主机模式无效
	ErrInvalidHostPattern
	// ErrDocumentLoad 读取或反序列化文档失败
	ErrDocumentLoad
	// ErrRecursiveGroup 子组关系形成环
	ErrRecursiveGroup
	// ErrInvalidHostSpec 主机定义不是 mapping
	ErrInvalidHostSpec
)

var typeNames = map[ErrorType]string{
	ErrMalformedDocument:   "MalformedDocument",
	ErrWrongPluginIdentity: "WrongPluginIdentity",
	ErrInvalidHostsShape:   "InvalidHostsShape",
	ErrInvalidGroupsShape:  "InvalidGroupsShape",
	ErrGroupCreation:       "GroupCreationError",
	ErrInvalidSectionShape: "InvalidSectionShape",
	ErrInvalidHostPattern:  "InvalidHostPattern",
	ErrDocumentLoad:        "DocumentLoadError",
	ErrRecursiveGroup:      "RecursiveGroup",
	ErrInvalidHostSpec:     "InvalidHostSpec",
}

func (t ErrorType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ErrorType(%d)", int(t))
}

// ParseError 统一的 inventory 解析错误类型
type ParseError struct {
	Type    ErrorType // 错误类型
	Path    string    // 来源文件（如果适用）
	Group   string    // 相关组（如果适用）
	Host    string    // 相关主机模式（如果适用）
	Section string    // 相关段: vars / children / groups
	Message string    // 错误消息
	Cause   error     // 原始错误
}

func (e *ParseError) Error() string {
	var ctx []string
	if e.Path != "" {
		ctx = append(ctx, "path="+e.Path)
	}
	if e.Group != "" {
		ctx = append(ctx, "group="+e.Group)
	}
	if e.Host != "" {
		ctx = append(ctx, "host="+e.Host)
	}
	if e.Section != "" {
		ctx = append(ctx, "section="+e.Section)
	}
	if len(ctx) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(ctx, ", "))
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// WithPath 补充来源文件，已设置时保持不变
func (e *ParseError) WithPath(path string) *ParseError {
	if e.Path == "" {
		e.Path = path
	}
	return e
}

// IsType 判断错误树中是否存在指定类型的 ParseError
// 会同时遍历 Cause 和 errors.Join 产生的多个分支
func IsType(err error, t ErrorType) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *ParseError:
		return e.Type == t || IsType(e.Cause, t)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if IsType(inner, t) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return IsType(e.Unwrap(), t)
	default:
		return false
	}
}

// TypeOf 返回错误链中第一个 ParseError 的类型
func TypeOf(err error) (ErrorType, bool) {
	var pe *ParseError
	if stderrors.As(err, &pe) {
		return pe.Type, true
	}
	return 0, false
}

// NewMalformedDocumentError 创建文档结构错误
func NewMalformedDocumentError(msg string) *ParseError {
	return &ParseError{
		Type:    ErrMalformedDocument,
		Message: msg,
	}
}

// NewWrongPluginError 创建插件名不匹配错误
func NewWrongPluginError(expected string, got interface{}) *ParseError {
	return &ParseError{
		Type:    ErrWrongPluginIdentity,
		Message: fmt.Sprintf("Expected a %s plugin yaml file, got plugin %v", expected, got),
	}
}

// NewInvalidHostsError 创建 hosts 格式错误
func NewInvalidHostsError(kind string) *ParseError {
	return &ParseError{
		Type:    ErrInvalidHostsShape,
		Section: "hosts",
		Message: fmt.Sprintf("Expected hosts to be a list or a dictionary, got: %s", kind),
	}
}

// NewInvalidGroupsError 创建 groups 格式错误
func NewInvalidGroupsError(kind string) *ParseError {
	return &ParseError{
		Type:    ErrInvalidGroupsShape,
		Section: "groups",
		Message: fmt.Sprintf("Expected groups to be a dictionary, got: %s", kind),
	}
}

// NewGroupCreationError 创建组失败错误
func NewGroupCreationError(group string, cause error) *ParseError {
	return &ParseError{
		Type:    ErrGroupCreation,
		Group:   group,
		Message: fmt.Sprintf("Unable to add group %s: %v", group, cause),
		Cause:   cause,
	}
}

// NewInvalidSectionError 创建段格式错误
func NewInvalidSectionError(section, group, kind string) *ParseError {
	return &ParseError{
		Type:    ErrInvalidSectionShape,
		Group:   group,
		Section: section,
		Message: fmt.Sprintf("Invalid %q entry for %q group, requires a dictionary, found %q instead.", section, group, kind),
	}
}

// NewInvalidHostSectionError 创建主机段格式错误
func NewInvalidHostSectionError(section, host, want, kind string) *ParseError {
	return &ParseError{
		Type:    ErrInvalidSectionShape,
		Host:    host,
		Section: section,
		Message: fmt.Sprintf("Invalid %q entry for %q host, requires a %s, found %q instead.", section, host, want, kind),
	}
}

// NewInvalidHostPatternError 创建主机模式错误
func NewInvalidHostPatternError(pattern string, cause error) *ParseError {
	msg := fmt.Sprintf("Host pattern %s must be a string. Enclose integers/floats in quotation marks.", pattern)
	if cause != nil {
		msg = fmt.Sprintf("Invalid host pattern %s: %v", pattern, cause)
	}
	return &ParseError{
		Type:    ErrInvalidHostPattern,
		Host:    pattern,
		Message: msg,
		Cause:   cause,
	}
}

// NewInvalidHostSpecError 创建主机定义格式错误
func NewInvalidHostSpecError(host, kind string) *ParseError {
	return &ParseError{
		Type:    ErrInvalidHostSpec,
		Host:    host,
		Message: fmt.Sprintf("Invalid definition for host %q, requires a dictionary, found %q instead.", host, kind),
	}
}

// NewDocumentLoadError 创建文档加载错误
func NewDocumentLoadError(filePath string, cause error) *ParseError {
	return &ParseError{
		Type:    ErrDocumentLoad,
		Path:    filePath,
		Message: fmt.Sprintf("Failed to load %s: %v", filePath, cause),
		Cause:   cause,
	}
}

// NewRecursiveGroupError 创建子组成环错误
func NewRecursiveGroupError(parent, child string, cause error) *ParseError {
	return &ParseError{
		Type:    ErrRecursiveGroup,
		Group:   parent,
		Section: "children",
		Message: fmt.Sprintf("Adding group %s as child to %s creates a recursive dependency loop", child, parent),
		Cause:   cause,
	}
}
