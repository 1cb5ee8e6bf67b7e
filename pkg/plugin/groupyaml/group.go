package groupyaml

import (
	"fmt"

	"github.com/jimyag/groupyaml/pkg/errors"
	"github.com/jimyag/groupyaml/pkg/inventory"
	"github.com/jimyag/groupyaml/pkg/node"
)

// 允许写成字符串简写的段
var groupSections = []string{"vars", "children"}

// resolveGroup 创建或获取组，并应用 vars 和 children
// 返回的组可以作为子组链接到其他组下
func (r *resolver) resolveGroup(name string, spec *node.Node) (*inventory.Group, error) {
	group, err := r.graph.EnsureGroup(name)
	if err != nil {
		return nil, errors.NewGroupCreationError(name, err)
	}
	r.log.Trace().Str("group", name).Msg("resolving group")

	if err := spec.Accept(&groupSpec{r: r, group: group, spec: spec}); err != nil {
		return nil, err
	}
	return group, nil
}

// groupSpec 按组定义的节点类型分发
type groupSpec struct {
	r     *resolver
	group *inventory.Group
	spec  *node.Node
}

var _ node.Visitor = (*groupSpec)(nil)

func (g *groupSpec) VisitNull() error { return nil }

func (g *groupSpec) VisitSequence([]*node.Node) error { return g.skip() }

func (g *groupSpec) VisitScalar(interface{}, string) error { return g.skip() }

func (g *groupSpec) skip() error {
	g.r.diag.Warning(fmt.Sprintf("Skipping definition of group (%s) as it is not a mapping, it is a %s",
		g.group.Name, g.spec.TypeName()))
	return nil
}

func (g *groupSpec) VisitMapping(pairs []node.Pair) error {
	r, name := g.r, g.group.Name

	sections, err := normalizeSections(name, g.spec)
	if err != nil {
		return err
	}

	for _, pair := range pairs {
		key := pair.Key.String()
		value := pair.Value
		if normalized, ok := sections[key]; ok && pair.Key.IsString() {
			value = normalized
		}

		switch {
		case !value.IsMapping() && !value.IsNull():
			r.diag.Warning(fmt.Sprintf("Skipping key (%s) in group (%s) as it is not a mapping, it is a %s",
				key, name, value.TypeName()))
		case value.IsNull():
			r.diag.Verbose(fmt.Sprintf("Skipping empty key (%s) in group (%s)", key, name))
		case key == "vars":
			for _, v := range value.Pairs {
				r.graph.SetVariable(g.group, v.Key.String(), v.Value.Interface())
			}
		case key == "children":
			for _, c := range value.Pairs {
				childName, err := groupName(c.Key)
				if err != nil {
					return err
				}
				child, err := r.resolveGroup(childName, c.Value)
				if err != nil {
					return err
				}
				if err := r.graph.AddChildGroup(g.group, child); err != nil {
					return errors.NewRecursiveGroupError(name, child.Name, err)
				}
			}
		default:
			r.diag.Warning(fmt.Sprintf(
				"Skipping unexpected key (%s) in group (%s), only \"vars\" and \"children\" are valid", key, name))
		}
	}
	return nil
}

// normalizeSections 将字符串形式的 vars/children 转换为 {name: null}，
// 并确保它们是 mapping 或 null
func normalizeSections(group string, spec *node.Node) (map[string]*node.Node, error) {
	sections := make(map[string]*node.Node)
	for _, section := range groupSections {
		value, ok := spec.Get(section)
		if !ok {
			continue
		}
		if s, isStr := value.Str(); isStr {
			value = node.Mapping(s, node.Null())
		}
		if !value.IsMapping() && !value.IsNull() {
			return nil, errors.NewInvalidSectionError(section, group, value.TypeName())
		}
		sections[section] = value
	}
	return sections, nil
}

// groupName 组名必须是字符串
func groupName(key *node.Node) (string, error) {
	name, ok := key.Str()
	if !ok {
		return "", errors.NewGroupCreationError(key.String(),
			fmt.Errorf("invalid group name supplied, expected a string but got %s", key.TypeName()))
	}
	return name, nil
}
