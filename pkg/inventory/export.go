package inventory

import (
	"fmt"
	"io"
	"sort"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// List 按 ansible-inventory --list 的格式导出
// export 为 true 时组变量保留在组上，hostvars 只含主机自身变量；
// 否则 hostvars 为合并后的有效变量
func (inv *Inventory) List(export bool) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	hostvars := make(map[string]interface{})

	for _, name := range inv.HostNames() {
		if export {
			host, _ := inv.Host(name)
			inv.mu.RLock()
			hostvars[name] = copyVars(host.Vars)
			inv.mu.RUnlock()
			continue
		}
		vars, err := inv.HostVars(name)
		if err != nil {
			return nil, err
		}
		hostvars[name] = vars
	}
	result["_meta"] = map[string]interface{}{"hostvars": hostvars}

	inv.mu.RLock()
	defer inv.mu.RUnlock()

	for _, name := range sortedKeys(inv.Groups) {
		g := inv.Groups[name]
		entry := make(map[string]interface{})
		if name != AllGroup && len(g.Hosts) > 0 {
			entry["hosts"] = sortedCopy(g.Hosts)
		}
		if len(g.Children) > 0 {
			entry["children"] = sortedCopy(g.Children)
		}
		if export && len(g.Vars) > 0 {
			entry["vars"] = copyVars(g.Vars)
		}
		if len(entry) == 0 && name != AllGroup {
			continue
		}
		result[name] = entry
	}

	return result, nil
}

type graphLine struct {
	Depth  int
	Indent int
	Label  string
}

var graphTemplate = template.Must(template.New("graph").Funcs(sprig.TxtFuncMap()).Parse(
	"{{ range . }}{{ if .Depth }}{{ repeat .Indent \"  |\" }}  |--{{ end }}{{ .Label }}\n{{ end }}",
))

// RenderGraph 按 ansible-inventory --graph 的格式输出以 root 为根的树
func (inv *Inventory) RenderGraph(w io.Writer, root string) error {
	inv.mu.RLock()
	if _, ok := inv.Groups[root]; !ok {
		inv.mu.RUnlock()
		return fmt.Errorf("group not found: %s", root)
	}
	var lines []graphLine
	inv.graphLines(root, 0, map[string]bool{}, &lines)
	inv.mu.RUnlock()

	return graphTemplate.Execute(w, lines)
}

// graphLines 深度优先收集输出行，调用方持有锁
func (inv *Inventory) graphLines(name string, depth int, path map[string]bool, lines *[]graphLine) {
	g := inv.Groups[name]
	*lines = append(*lines, graphLine{Depth: depth, Indent: depth - 1, Label: "@" + name + ":"})
	if path[name] {
		return
	}
	path[name] = true
	defer delete(path, name)

	for _, child := range sortedCopy(g.Children) {
		if _, ok := inv.Groups[child]; ok {
			inv.graphLines(child, depth+1, path, lines)
		}
	}
	for _, host := range sortedCopy(g.Hosts) {
		if name == AllGroup {
			break
		}
		*lines = append(*lines, graphLine{Depth: depth + 1, Indent: depth, Label: host})
	}
}

func sortedCopy(s []string) []string {
	out := append([]string{}, s...)
	sort.Strings(out)
	return out
}

func copyVars(vars map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(vars))
	for k, v := range vars {
		out[k] = v
	}
	return out
}
