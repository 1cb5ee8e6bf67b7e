package inventory

import (
	"fmt"
	"sort"
)

// HostVars 合并主机的所有变量（按优先级）
//  1. all 组变量（最低优先级）
//  2. 祖先组变量，按深度从浅到深，同深度按组名
//  3. 主机变量（最高优先级）
func (inv *Inventory) HostVars(hostname string) (map[string]interface{}, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	host, exists := inv.Hosts[hostname]
	if !exists {
		return nil, fmt.Errorf("host not found: %s", hostname)
	}

	groups := inv.ancestors(host.Groups)
	depth := make(map[string]int, len(groups))
	for _, name := range groups {
		depth[name] = inv.depth(name)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if depth[groups[i]] != depth[groups[j]] {
			return depth[groups[i]] < depth[groups[j]]
		}
		return groups[i] < groups[j]
	})

	result := make(map[string]interface{})
	if all, ok := inv.Groups[AllGroup]; ok {
		for k, v := range all.Vars {
			result[k] = v
		}
	}
	for _, name := range groups {
		if name == AllGroup {
			continue
		}
		for k, v := range inv.Groups[name].Vars {
			result[k] = v
		}
	}
	for k, v := range host.Vars {
		result[k] = v
	}

	return result, nil
}

// ancestors 返回给定组及其全部祖先，调用方持有锁
func (inv *Inventory) ancestors(direct []string) []string {
	seen := make(map[string]bool)
	var out []string
	stack := append([]string{}, direct...)
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[name] {
			continue
		}
		seen[name] = true
		g, ok := inv.Groups[name]
		if !ok {
			continue
		}
		out = append(out, name)
		stack = append(stack, g.Parents...)
	}
	return out
}

// depth 返回组到根的最长路径长度，调用方持有锁
func (inv *Inventory) depth(name string) int {
	memo := make(map[string]int)
	var walk func(string, map[string]bool) int
	walk = func(n string, path map[string]bool) int {
		if d, ok := memo[n]; ok {
			return d
		}
		g, ok := inv.Groups[n]
		if !ok || path[n] {
			return 0
		}
		path[n] = true
		defer delete(path, n)

		d := 0
		for _, p := range g.Parents {
			if pd := walk(p, path) + 1; pd > d {
				d = pd
			}
		}
		memo[n] = d
		return d
	}
	return walk(name, make(map[string]bool))
}
