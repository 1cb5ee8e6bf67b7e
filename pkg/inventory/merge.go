package inventory

import (
	"github.com/jimyag/groupyaml/pkg/errors"
)

// Merge 将 src 中的组、主机、变量和成员关系合并进 inv
// 变量后写覆盖，成员关系取并集；src 在合并期间不能被修改
func (inv *Inventory) Merge(src *Inventory) error {
	if src == nil || src == inv {
		return nil
	}

	src.mu.RLock()
	defer src.mu.RUnlock()

	groupNames := sortedKeys(src.Groups)
	for _, name := range groupNames {
		g, err := inv.EnsureGroup(name)
		if err != nil {
			return errors.NewGroupCreationError(name, err)
		}
		for k, v := range src.Groups[name].Vars {
			inv.SetVariable(g, k, v)
		}
	}

	for _, name := range groupNames {
		parent, _ := inv.Group(name)
		for _, childName := range src.Groups[name].Children {
			child, _ := inv.Group(childName)
			if err := inv.AddChildGroup(parent, child); err != nil {
				return errors.NewRecursiveGroupError(parent.Name, childName, err)
			}
		}
	}

	for _, name := range sortedKeys(src.Hosts) {
		h := src.Hosts[name]
		host, err := inv.AddHost(name, h.Port)
		if err != nil {
			return err
		}
		for k, v := range h.Vars {
			inv.SetVariable(host, k, v)
		}
	}

	// 按组遍历以保留组内主机的源顺序
	for _, name := range groupNames {
		if name == AllGroup {
			continue
		}
		group, _ := inv.Group(name)
		for _, hostname := range src.Groups[name].Hosts {
			host, _ := inv.Host(hostname)
			if err := inv.AddHostToGroup(host, group, 0); err != nil {
				return err
			}
		}
	}
	return nil
}
