package inventory

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/jimyag/groupyaml/pkg/errors"
	"github.com/jimyag/groupyaml/pkg/hostpattern"
)

// Parser 将一个 inventory 来源解析进图中
type Parser interface {
	Name() string
	VerifyFile(path string) bool
	ParseInto(inv *Inventory, path string) error
}

// INIParser 解析 INI 格式的 inventory
type INIParser struct {
	expander hostpattern.Expander
}

// NewINIParser 创建一个新的 INI 解析器
func NewINIParser() *INIParser {
	return &INIParser{expander: hostpattern.NewExpander()}
}

// Name 返回解析器名称
func (p *INIParser) Name() string { return "ini" }

// VerifyFile 接受任何普通文件
func (p *INIParser) VerifyFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Parse 解析 INI 文件到新的 Inventory
func (p *INIParser) Parse(filePath string) (*Inventory, error) {
	inv := NewInventory()
	if err := p.ParseInto(inv, filePath); err != nil {
		return nil, err
	}
	inv.Reconcile()
	return inv, nil
}

// ParseInto 解析 INI 格式的 inventory 文件
func (p *INIParser) ParseInto(inv *Inventory, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return errors.NewDocumentLoadError(filePath, err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0
	currentSection := ""
	currentGroup := ""

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// 跳过空行和注释
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		// 解析 section header [groupname] 或 [groupname:vars] 或 [groupname:children]
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section := line[1 : len(line)-1]

			switch {
			case strings.HasSuffix(section, ":vars"):
				currentGroup = strings.TrimSuffix(section, ":vars")
				currentSection = "vars"
			case strings.HasSuffix(section, ":children"):
				currentGroup = strings.TrimSuffix(section, ":children")
				currentSection = "children"
			default:
				currentGroup = section
				currentSection = "hosts"
			}

			if _, err := inv.EnsureGroup(currentGroup); err != nil {
				return p.lineError(filePath, lineNum, err)
			}
			continue
		}

		if err := p.parseLine(inv, line, currentSection, currentGroup); err != nil {
			return p.lineError(filePath, lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.NewDocumentLoadError(filePath, err)
	}
	return nil
}

func (p *INIParser) lineError(filePath string, lineNum int, err error) error {
	if pe, ok := err.(*errors.ParseError); ok {
		return pe.WithPath(filePath)
	}
	return &errors.ParseError{
		Type:    errors.ErrMalformedDocument,
		Path:    filePath,
		Message: fmt.Sprintf("line %d: %v", lineNum, err),
		Cause:   err,
	}
}

// parseLine 解析单行内容
func (p *INIParser) parseLine(inv *Inventory, line, section, group string) error {
	switch section {
	case "hosts":
		return p.parseHost(inv, line, group)
	case "vars":
		return p.parseGroupVar(inv, line, group)
	case "children":
		return p.parseChild(inv, line, group)
	default:
		// 文件开头、不属于任何 section 的主机
		return p.parseHost(inv, line, "")
	}
}

// parseHost 解析主机行
// 格式: pattern [key=value key=value ...]
func (p *INIParser) parseHost(inv *Inventory, line, group string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	addrs, err := p.expander.Expand(parts[0])
	if err != nil {
		return errors.NewInvalidHostPatternError(parts[0], err)
	}

	vars := make(map[string]interface{})
	for _, part := range parts[1:] {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return fmt.Errorf("invalid host variable %q for %s", part, parts[0])
		}
		vars[kv[0]] = kv[1]
	}

	var g *Group
	if group != "" {
		if g, err = inv.EnsureGroup(group); err != nil {
			return err
		}
	}

	for _, addr := range addrs {
		host, err := inv.AddHost(addr.Name, addr.Port)
		if err != nil {
			return err
		}
		for k, v := range vars {
			inv.SetVariable(host, k, v)
		}
		if g != nil {
			if err := inv.AddHostToGroup(host, g, addr.Port); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseGroupVar 解析组变量
func (p *INIParser) parseGroupVar(inv *Inventory, line, group string) error {
	kv := strings.SplitN(line, "=", 2)
	if len(kv) != 2 {
		return fmt.Errorf("invalid variable line: %s", line)
	}

	g, err := inv.EnsureGroup(group)
	if err != nil {
		return err
	}
	inv.SetVariable(g, strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1]))
	return nil
}

// parseChild 解析子组
func (p *INIParser) parseChild(inv *Inventory, line, group string) error {
	parent, err := inv.EnsureGroup(group)
	if err != nil {
		return err
	}
	child, err := inv.EnsureGroup(strings.TrimSpace(line))
	if err != nil {
		return err
	}
	if err := inv.AddChildGroup(parent, child); err != nil {
		return errors.NewRecursiveGroupError(parent.Name, child.Name, err)
	}
	return nil
}
