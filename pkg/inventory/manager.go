package inventory

import (
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jimyag/groupyaml/pkg/errors"
	"github.com/jimyag/groupyaml/pkg/logger"
)

// Manager 是 Inventory 管理器
type Manager struct {
	inventory *Inventory
	parsers   []Parser
}

// NewManager 创建一个新的 Manager
// parsers 按顺序尝试，第一个接受该文件的解析器负责解析；INI 解析器总是最后一个
func NewManager(parsers ...Parser) *Manager {
	return &Manager{
		inventory: NewInventory(),
		parsers:   append(parsers, NewINIParser()),
	}
}

// Inventory 返回底层的图
func (m *Manager) Inventory() *Inventory {
	return m.inventory
}

// Load 加载 inventory 文件
// 每个解析器先写入独立的临时图，成功后才合并进共享图，失败的来源不会留下任何数据。
// 错误表明文件不是该解析器的格式（读取、结构、插件名错误）时继续尝试下一个解析器
func (m *Manager) Load(path string) error {
	var failures []error
	for _, parser := range m.parsers {
		if !parser.VerifyFile(path) {
			logger.Debugf("inventory parser %s skipped %s", parser.Name(), path)
			continue
		}

		id := uuid.NewString()
		logger.Debugf("parsing %s with %s (source %s)", path, parser.Name(), id)
		scratch := NewInventory()
		if err := parser.ParseInto(scratch, path); err != nil {
			logger.Debugf("inventory parser %s failed on %s: %v", parser.Name(), path, err)
			failures = append(failures, fmt.Errorf("%s: %w", parser.Name(), err))
			if !formatMismatch(err) {
				break
			}
			continue
		}

		if err := m.inventory.Merge(scratch); err != nil {
			if pe, ok := err.(*errors.ParseError); ok {
				err = pe.WithPath(path)
			}
			return fmt.Errorf("%s: %w", parser.Name(), err)
		}
		m.inventory.AddSource(Source{ID: id, Path: path, Parser: parser.Name()})
		m.inventory.Reconcile()
		return nil
	}

	if len(failures) == 1 {
		return failures[0]
	}
	if len(failures) > 0 {
		return stderrors.Join(failures...)
	}
	return fmt.Errorf("no inventory parser accepted %s", path)
}

// formatMismatch 判断错误是否说明文件不属于该解析器的格式
func formatMismatch(err error) bool {
	return errors.IsType(err, errors.ErrDocumentLoad) ||
		errors.IsType(err, errors.ErrMalformedDocument) ||
		errors.IsType(err, errors.ErrWrongPluginIdentity)
}

// GetHost 获取单个主机
func (m *Manager) GetHost(name string) (*Host, error) {
	host, exists := m.inventory.Host(name)
	if !exists {
		return nil, fmt.Errorf("host not found: %s", name)
	}
	return host, nil
}

// GetHosts 根据模式获取主机列表
// 支持 all / *、组名（包括子组的主机）和主机名
func (m *Manager) GetHosts(pattern string) ([]*Host, error) {
	var hosts []*Host

	switch pattern {
	case AllGroup, "*":
		for _, name := range m.inventory.HostNames() {
			host, _ := m.inventory.Host(name)
			hosts = append(hosts, host)
		}
	default:
		if group, exists := m.inventory.Group(pattern); exists {
			for _, hostname := range m.collectGroupHosts(group) {
				if host, exists := m.inventory.Host(hostname); exists {
					hosts = append(hosts, host)
				}
			}
		} else if host, exists := m.inventory.Host(pattern); exists {
			hosts = append(hosts, host)
		}
	}

	if len(hosts) == 0 {
		return nil, fmt.Errorf("no hosts matched pattern: %s", pattern)
	}

	return hosts, nil
}

// GetGroup 获取组
func (m *Manager) GetGroup(name string) (*Group, error) {
	group, exists := m.inventory.Group(name)
	if !exists {
		return nil, fmt.Errorf("group not found: %s", name)
	}
	return group, nil
}

// collectGroupHosts 递归收集组中的所有主机
func (m *Manager) collectGroupHosts(group *Group) []string {
	hostnames := make([]string, 0)
	seen := make(map[string]bool)
	visited := make(map[string]bool)

	m.inventory.mu.RLock()
	defer m.inventory.mu.RUnlock()

	var collect func(*Group)
	collect = func(g *Group) {
		if visited[g.Name] {
			return
		}
		visited[g.Name] = true

		for _, hostname := range g.Hosts {
			if !seen[hostname] {
				hostnames = append(hostnames, hostname)
				seen[hostname] = true
			}
		}

		for _, childName := range g.Children {
			if child, exists := m.inventory.Groups[childName]; exists {
				collect(child)
			}
		}
	}

	collect(group)
	return hostnames
}
