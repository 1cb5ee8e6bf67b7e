package inventory

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrRecursiveGroup 添加子组会形成环
	ErrRecursiveGroup = errors.New("recursive group dependency")
	// ErrInvalidName 组名或主机名无效
	ErrInvalidName = errors.New("invalid name")
)

// Entity 可以持有变量的对象（Host 或 Group）
type Entity interface {
	EntityName() string
	variables() map[string]interface{}
}

// Host 表示一个主机
type Host struct {
	Name   string                 // Inventory hostname (alias)
	Port   int                    // 0 表示未指定
	Vars   map[string]interface{} // 主机自身的变量
	Groups []string               // 直接所属组名
}

// EntityName 返回主机名
func (h *Host) EntityName() string { return h.Name }

func (h *Host) variables() map[string]interface{} { return h.Vars }

// Group 表示一个主机组
type Group struct {
	Name     string
	Hosts    []string // 直接成员主机
	Children []string // 子组名列表
	Vars     map[string]interface{}
	Parents  []string // 父组名列表 (用于计算变量优先级)
}

// EntityName 返回组名
func (g *Group) EntityName() string { return g.Name }

func (g *Group) variables() map[string]interface{} { return g.Vars }

// Source 记录已加载的 inventory 来源
type Source struct {
	ID     string
	Path   string
	Parser string
}

// Inventory 表示整个 inventory，是主机、组和变量的图
// 所有修改方法都是幂等的，并发调用是安全的
type Inventory struct {
	mu      sync.RWMutex
	Hosts   map[string]*Host
	Groups  map[string]*Group
	Sources []Source
}

const (
	AllGroup       = "all"
	UngroupedGroup = "ungrouped"
)

func newGroup(name string) *Group {
	return &Group{
		Name:     name,
		Hosts:    []string{},
		Children: []string{},
		Vars:     make(map[string]interface{}),
		Parents:  []string{},
	}
}

// NewInventory 创建一个新的 Inventory
func NewInventory() *Inventory {
	inv := &Inventory{
		Hosts:  make(map[string]*Host),
		Groups: make(map[string]*Group),
	}

	// 创建默认组
	all := newGroup(AllGroup)
	ungrouped := newGroup(UngroupedGroup)
	all.Children = append(all.Children, UngroupedGroup)
	ungrouped.Parents = append(ungrouped.Parents, AllGroup)
	inv.Groups[AllGroup] = all
	inv.Groups[UngroupedGroup] = ungrouped

	return inv
}

// EnsureGroup 获取或创建组
func (inv *Inventory) EnsureGroup(name string) (*Group, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: group name must not be empty", ErrInvalidName)
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	if g, exists := inv.Groups[name]; exists {
		return g, nil
	}
	g := newGroup(name)
	inv.Groups[name] = g
	return g, nil
}

// AddChildGroup 建立父子关系，重复调用不会产生重复的边
// 如果 parent 已经是 child 的后代，或 child 是 all，则返回 ErrRecursiveGroup
func (inv *Inventory) AddChildGroup(parent, child *Group) error {
	if parent == nil || child == nil {
		return fmt.Errorf("%w: nil group", ErrInvalidName)
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	if contains(parent.Children, child.Name) {
		return nil
	}
	// all 是根，不能成为任何组的子组
	if parent.Name == child.Name || child.Name == AllGroup || inv.reachable(child.Name, parent.Name) {
		return fmt.Errorf("adding group %s as child to %s: %w", child.Name, parent.Name, ErrRecursiveGroup)
	}

	parent.Children = append(parent.Children, child.Name)
	child.Parents = append(child.Parents, parent.Name)
	return nil
}

// reachable 判断从 from 沿子组能否到达 to，调用方持有锁
func (inv *Inventory) reachable(from, to string) bool {
	seen := make(map[string]bool)
	stack := []string{from}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if name == to {
			return true
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		if g, ok := inv.Groups[name]; ok {
			stack = append(stack, g.Children...)
		}
	}
	return false
}

// AddHost 获取或创建主机，port 非 0 时同时设置 ansible_port
func (inv *Inventory) AddHost(name string, port int) (*Host, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: host name must not be empty", ErrInvalidName)
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	host, exists := inv.Hosts[name]
	if !exists {
		host = &Host{
			Name:   name,
			Vars:   make(map[string]interface{}),
			Groups: []string{},
		}
		inv.Hosts[name] = host
	}
	setPort(host, port)

	all := inv.Groups[AllGroup]
	if !contains(all.Hosts, name) {
		all.Hosts = append(all.Hosts, name)
	}
	return host, nil
}

// AddHostToGroup 将主机加入组
func (inv *Inventory) AddHostToGroup(host *Host, group *Group, port int) error {
	if host == nil || group == nil {
		return fmt.Errorf("%w: nil host or group", ErrInvalidName)
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	setPort(host, port)
	if !contains(host.Groups, group.Name) {
		host.Groups = append(host.Groups, group.Name)
	}
	if !contains(group.Hosts, host.Name) {
		group.Hosts = append(group.Hosts, host.Name)
	}
	return nil
}

// SetVariable 设置主机或组变量，已存在时覆盖
func (inv *Inventory) SetVariable(target Entity, key string, value interface{}) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	target.variables()[key] = value
}

func setPort(host *Host, port int) {
	if port == 0 {
		return
	}
	host.Port = port
	host.Vars["ansible_port"] = port
}

// Reconcile 整理图：无父组的组挂到 all 下，无组的主机归入 ungrouped
func (inv *Inventory) Reconcile() {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	all := inv.Groups[AllGroup]
	ungrouped := inv.Groups[UngroupedGroup]

	for _, name := range sortedKeys(inv.Groups) {
		g := inv.Groups[name]
		if name == AllGroup || len(g.Parents) > 0 {
			continue
		}
		all.Children = append(all.Children, name)
		g.Parents = append(g.Parents, AllGroup)
	}

	for _, name := range sortedKeys(inv.Hosts) {
		host := inv.Hosts[name]
		grouped := false
		for _, g := range host.Groups {
			if g != UngroupedGroup && g != AllGroup {
				grouped = true
				break
			}
		}

		switch {
		case !grouped && !contains(host.Groups, UngroupedGroup):
			host.Groups = append(host.Groups, UngroupedGroup)
			ungrouped.Hosts = append(ungrouped.Hosts, name)
		case grouped && contains(host.Groups, UngroupedGroup):
			host.Groups = remove(host.Groups, UngroupedGroup)
			ungrouped.Hosts = remove(ungrouped.Hosts, name)
		}
	}
}

// Host 按名称查找主机
func (inv *Inventory) Host(name string) (*Host, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	h, ok := inv.Hosts[name]
	return h, ok
}

// Group 按名称查找组
func (inv *Inventory) Group(name string) (*Group, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	g, ok := inv.Groups[name]
	return g, ok
}

// HostNames 返回排序后的主机名
func (inv *Inventory) HostNames() []string {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return sortedKeys(inv.Hosts)
}

// GroupNames 返回排序后的组名
func (inv *Inventory) GroupNames() []string {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return sortedKeys(inv.Groups)
}

// AddSource 记录一个已加载的来源
func (inv *Inventory) AddSource(src Source) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.Sources = append(inv.Sources, src)
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// contains 检查切片是否包含元素
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func remove(slice []string, item string) []string {
	out := slice[:0]
	for _, s := range slice {
		if s != item {
			out = append(out, s)
		}
	}
	return out
}
