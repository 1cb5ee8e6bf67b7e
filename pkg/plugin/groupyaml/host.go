package groupyaml

import (
	"fmt"

	"github.com/jimyag/groupyaml/pkg/errors"
	"github.com/jimyag/groupyaml/pkg/node"
)

// resolveHosts 处理 hosts 段，mapping 或 list 形式
func (r *resolver) resolveHosts(hosts *node.Node) error {
	return hosts.Accept(&hostsSection{r: r, hosts: hosts})
}

// hostsSection 按 hosts 段的节点类型分发
type hostsSection struct {
	r     *resolver
	hosts *node.Node
}

var _ node.Visitor = (*hostsSection)(nil)

func (h *hostsSection) VisitNull() error { return nil }

func (h *hostsSection) VisitScalar(interface{}, string) error {
	return errors.NewInvalidHostsError(h.hosts.TypeName())
}

func (h *hostsSection) VisitMapping(pairs []node.Pair) error {
	for _, pair := range pairs {
		if err := h.r.resolveHost(pair.Key, pair.Value); err != nil {
			return err
		}
	}
	return nil
}

// VisitSequence list 形式：每一项是模式字符串，或只有一个键的 {pattern: spec}
func (h *hostsSection) VisitSequence(items []*node.Node) error {
	for i, item := range items {
		switch {
		case item.IsScalar():
			if err := h.r.resolveHost(item, nil); err != nil {
				return err
			}
		case item.IsMapping() && item.Len() == 1:
			if err := h.r.resolveHost(item.Pairs[0].Key, item.Pairs[0].Value); err != nil {
				return err
			}
		default:
			return errors.NewInvalidHostsError(fmt.Sprintf("%s at hosts[%d]", item.TypeName(), i))
		}
	}
	return nil
}

// resolveHost 展开主机模式，为每个主机设置相同的变量和组
func (r *resolver) resolveHost(patternKey, spec *node.Node) error {
	pattern, ok := patternKey.Str()
	if !ok {
		return errors.NewInvalidHostPatternError(patternKey.String(), nil)
	}

	addrs, err := r.expander.Expand(pattern)
	if err != nil {
		return errors.NewInvalidHostPatternError(pattern, err)
	}

	vars, groups, err := r.hostSections(pattern, spec)
	if err != nil {
		return err
	}

	names, err := hostGroupNames(pattern, groups)
	if err != nil {
		return err
	}

	r.log.Trace().Str("pattern", pattern).Int("hosts", len(addrs)).Msg("resolving hosts")

	for _, addr := range addrs {
		host, err := r.graph.AddHost(addr.Name, addr.Port)
		if err != nil {
			return errors.NewInvalidHostPatternError(pattern, err)
		}

		if vars.IsMapping() {
			for _, v := range vars.Pairs {
				r.graph.SetVariable(host, v.Key.String(), v.Value.Interface())
			}
		}

		for _, name := range names {
			group, err := r.graph.EnsureGroup(name)
			if err != nil {
				return errors.NewGroupCreationError(name, err)
			}
			if err := r.graph.AddHostToGroup(host, group, addr.Port); err != nil {
				return errors.NewGroupCreationError(name, err)
			}
		}
	}
	return nil
}

// hostSections 取出主机定义中的 vars 和 groups，spec 为 null 时都为空
func (r *resolver) hostSections(pattern string, spec *node.Node) (vars, groups *node.Node, err error) {
	if spec.IsNull() {
		return nil, nil, nil
	}
	if !spec.IsMapping() {
		return nil, nil, errors.NewInvalidHostSpecError(pattern, spec.TypeName())
	}

	for _, pair := range spec.Pairs {
		key, _ := pair.Key.Str()
		switch key {
		case "vars":
			vars = pair.Value
		case "groups":
			groups = pair.Value
		default:
			r.diag.Warning(fmt.Sprintf(
				"Skipping unexpected key (%s) in host (%s), only \"vars\" and \"groups\" are valid",
				pair.Key.String(), pattern))
		}
	}

	if !vars.IsNull() && !vars.IsMapping() {
		return nil, nil, errors.NewInvalidHostSectionError("vars", pattern, "dictionary", vars.TypeName())
	}
	return vars, groups, nil
}

// hostGroupNames groups 可以是字符串列表、单个字符串或 null
func hostGroupNames(pattern string, groups *node.Node) ([]string, error) {
	switch groups.KindOf() {
	case node.KindNull:
		return nil, nil
	case node.KindSequence:
		names := make([]string, 0, len(groups.Items))
		for _, item := range groups.Items {
			name, err := groupName(item)
			if err != nil {
				return nil, err
			}
			names = append(names, name)
		}
		return names, nil
	default:
		if name, ok := groups.Str(); ok {
			return []string{name}, nil
		}
		return nil, errors.NewInvalidHostSectionError("groups", pattern, "list", groups.TypeName())
	}
}
