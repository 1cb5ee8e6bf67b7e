// Package hostpattern 解析 inventory 中的主机模式。
//
// 支持的写法：
//
//	web1                  单个主机
//	web1:2222             主机加端口
//	[fe80::1]:2222        带端口的 IPv6
//	fe80::1               不带端口的 IPv6
//	web[1:3]              数字范围 web1 web2 web3
//	web[01:10:2]          带补零和步长
//	db-[a:c].example.com  字母范围
package hostpattern

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Address 一个展开后的主机，Port 为 0 表示未指定
type Address struct {
	Name string
	Port int
}

// Expander 将主机模式展开为具体主机
type Expander interface {
	Expand(pattern string) ([]Address, error)
}

// RangeExpander 默认的展开实现
type RangeExpander struct{}

// NewExpander 创建展开器
func NewExpander() *RangeExpander {
	return &RangeExpander{}
}

// Expand 解析端口并展开范围，所有主机共享同一端口
func (e *RangeExpander) Expand(pattern string) ([]Address, error) {
	host, port, err := ParseAddress(pattern)
	if err != nil {
		return nil, err
	}

	names, err := ExpandRange(host)
	if err != nil {
		return nil, err
	}

	addrs := make([]Address, 0, len(names))
	for _, name := range names {
		addrs = append(addrs, Address{Name: name, Port: port})
	}
	return addrs, nil
}

var (
	bracketedHostPort = regexp.MustCompile(`^\[(.+)\]:(\d+)$`)
	hostPort          = regexp.MustCompile(`^(.+):(\d+)$`)
)

// ParseAddress 拆分主机和端口，不展开范围
func ParseAddress(pattern string) (string, int, error) {
	p := strings.TrimSpace(pattern)
	if p == "" {
		return "", 0, fmt.Errorf("empty host pattern")
	}

	host, portStr := p, ""
	if m := bracketedHostPort.FindStringSubmatch(p); m != nil {
		host, portStr = m[1], m[2]
	} else if m := hostPort.FindStringSubmatch(p); m != nil && colonsOutsideBrackets(m[1]) == 0 {
		host, portStr = m[1], m[2]
	} else if colonsOutsideBrackets(p) == 1 {
		return "", 0, fmt.Errorf("invalid port in host pattern %q", pattern)
	}

	if strings.ContainsAny(host, " \t\r\n") {
		return "", 0, fmt.Errorf("host pattern %q contains whitespace", pattern)
	}

	port := 0
	if portStr != "" {
		n, err := strconv.Atoi(portStr)
		if err != nil || n < 1 || n > 65535 {
			return "", 0, fmt.Errorf("invalid port %q in host pattern %q", portStr, pattern)
		}
		port = n
	}

	return host, port, nil
}

// colonsOutsideBrackets 统计不在 [...] 中的冒号
func colonsOutsideBrackets(s string) int {
	depth, count := 0, 0
	for _, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 {
				count++
			}
		}
	}
	return count
}

// HasRange 判断是否包含范围表达式
func HasRange(pattern string) bool {
	open := strings.Index(pattern, "[")
	return open >= 0 && strings.Contains(pattern[open:], "]")
}

const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ExpandRange 展开主机名中的 [begin:end(:step)] 范围，可以有多个范围
func ExpandRange(pattern string) ([]string, error) {
	if !HasRange(pattern) {
		return []string{pattern}, nil
	}

	open := strings.Index(pattern, "[")
	end := open + strings.Index(pattern[open:], "]")
	head, body, tail := pattern[:open], pattern[open+1:end], pattern[end+1:]

	values, err := rangeValues(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pattern, err)
	}

	var names []string
	for _, v := range values {
		name := head + v + tail
		if !HasRange(tail) {
			names = append(names, name)
			continue
		}
		expanded, err := ExpandRange(name)
		if err != nil {
			return nil, err
		}
		names = append(names, expanded...)
	}
	return names, nil
}

func rangeValues(body string) ([]string, error) {
	bounds := strings.Split(body, ":")
	if len(bounds) != 2 && len(bounds) != 3 {
		return nil, fmt.Errorf("host range must be begin:end or begin:end:step")
	}

	beg, end := bounds[0], bounds[1]
	step := 1
	if len(bounds) == 3 {
		n, err := strconv.Atoi(bounds[2])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("host range step must be a positive integer, got %q", bounds[2])
		}
		step = n
	}
	if beg == "" {
		beg = "0"
	}
	if end == "" {
		return nil, fmt.Errorf("host range must specify end value")
	}

	if len(beg) == 1 && len(end) == 1 && strings.Contains(letters, beg) && strings.Contains(letters, end) {
		ib, ie := strings.Index(letters, beg), strings.Index(letters, end)
		if ib > ie {
			return nil, fmt.Errorf("host range must have begin <= end")
		}
		var values []string
		for i := ib; i <= ie; i += step {
			values = append(values, letters[i:i+1])
		}
		return values, nil
	}

	ib, err := strconv.Atoi(beg)
	if err != nil {
		return nil, fmt.Errorf("host range must be numeric or a single letter, got %q", beg)
	}
	ie, err := strconv.Atoi(end)
	if err != nil {
		return nil, fmt.Errorf("host range must be numeric or a single letter, got %q", end)
	}
	if ib > ie {
		return nil, fmt.Errorf("host range must have begin <= end")
	}

	width := 0
	if beg[0] == '0' && len(beg) > 1 {
		if len(beg) != len(end) {
			return nil, fmt.Errorf("host range must specify equal-length begin and end formats")
		}
		width = len(beg)
	}

	var values []string
	for i := ib; i <= ie; i += step {
		values = append(values, fmt.Sprintf("%0*d", width, i))
	}
	return values, nil
}
