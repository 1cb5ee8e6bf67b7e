package groupyaml

import (
	"fmt"

	"github.com/jimyag/groupyaml/pkg/errors"
	"github.com/jimyag/groupyaml/pkg/logger"
	"github.com/jimyag/groupyaml/pkg/node"
)

// document 通过结构校验的顶层段
type document struct {
	hosts  *node.Node
	groups *node.Node
}

var topLevelKeys = map[string]bool{
	"plugin": true,
	"hosts":  true,
	"groups": true,
}

// validate 检查文档的顶层结构，不修改图
func (p *Plugin) validate(doc *node.Node, diag logger.Diagnostics) (*document, error) {
	if doc.IsNull() {
		return nil, errors.NewMalformedDocumentError("Parsed empty YAML file")
	}
	if !doc.IsMapping() {
		return nil, errors.NewMalformedDocumentError(fmt.Sprintf(
			"YAML inventory has invalid structure, it should be a dictionary, got: %s", doc.TypeName()))
	}

	plugin, ok := doc.Get("plugin")
	if !ok {
		return nil, errors.NewWrongPluginError(p.opts.Plugin, "<missing>")
	}
	if name, isStr := plugin.Str(); !isStr || name != p.opts.Plugin {
		return nil, errors.NewWrongPluginError(p.opts.Plugin, plugin.String())
	}

	d := &document{}
	d.hosts, _ = doc.Get("hosts")
	switch d.hosts.KindOf() {
	case node.KindNull:
		diag.Notice("empty hosts")
	case node.KindMapping, node.KindSequence:
	default:
		return nil, errors.NewInvalidHostsError(d.hosts.TypeName())
	}

	d.groups, _ = doc.Get("groups")
	switch d.groups.KindOf() {
	case node.KindNull:
		diag.Notice("Skipping groups")
	case node.KindMapping:
	default:
		return nil, errors.NewInvalidGroupsError(d.groups.TypeName())
	}

	for _, pair := range doc.Pairs {
		if key, isStr := pair.Key.Str(); !isStr || !topLevelKeys[key] {
			diag.Verbose(fmt.Sprintf("Skipping unexpected top-level key (%s)", pair.Key.String()))
		}
	}

	return d, nil
}
