// Package groupyaml 实现 group_yaml inventory 插件。
//
// 文档格式：
//
//	plugin: group_yaml
//	groups:
//	  web:
//	    vars:
//	      http_port: 80
//	    children:
//	      frontend:
//	      backend: {vars: {tier: 2}}
//	  db:
//	    children: replicas   # 等价于 {replicas: null}
//	hosts:
//	  web[1:3]:
//	    vars: {env: prod}
//	    groups: [frontend]
//	  db1.example.com:2222:
//	    groups: [db]
//
// 组和主机分开声明，主机通过 groups 列表加入组。
package groupyaml

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jimyag/groupyaml/pkg/config"
	"github.com/jimyag/groupyaml/pkg/errors"
	"github.com/jimyag/groupyaml/pkg/hostpattern"
	"github.com/jimyag/groupyaml/pkg/inventory"
	"github.com/jimyag/groupyaml/pkg/loader"
	"github.com/jimyag/groupyaml/pkg/logger"
	"github.com/jimyag/groupyaml/pkg/node"
)

// Graph 是解析结果写入的 inventory 图
type Graph interface {
	EnsureGroup(name string) (*inventory.Group, error)
	AddChildGroup(parent, child *inventory.Group) error
	AddHost(name string, port int) (*inventory.Host, error)
	SetVariable(target inventory.Entity, key string, value interface{})
	AddHostToGroup(host *inventory.Host, group *inventory.Group, port int) error
}

var (
	_ Graph            = (*inventory.Inventory)(nil)
	_ inventory.Parser = (*Plugin)(nil)
)

// Plugin group_yaml inventory 插件
type Plugin struct {
	opts     *config.Options
	loader   loader.Loader
	expander hostpattern.Expander
	diag     logger.Diagnostics
}

// Option 配置 Plugin
type Option func(*Plugin)

// WithLoader 替换文档加载器
func WithLoader(l loader.Loader) Option {
	return func(p *Plugin) { p.loader = l }
}

// WithExpander 替换主机模式展开器
func WithExpander(e hostpattern.Expander) Option {
	return func(p *Plugin) { p.expander = e }
}

// WithDiagnostics 设置诊断消息接收者，默认写入 zerolog
func WithDiagnostics(d logger.Diagnostics) Option {
	return func(p *Plugin) { p.diag = d }
}

// New 创建插件，opts 为 nil 时使用默认选项
func New(opts *config.Options, options ...Option) *Plugin {
	if opts == nil {
		opts = config.DefaultOptions()
	}
	p := &Plugin{
		opts:     opts,
		loader:   loader.NewYAMLLoader(),
		expander: hostpattern.NewExpander(),
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// Name 返回插件名称
func (p *Plugin) Name() string {
	return p.opts.Plugin
}

// VerifyFile 判断文件是否可能由本插件处理
// 文件必须存在，且没有扩展名或扩展名在 yaml_extensions 中
func (p *Plugin) VerifyFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	ext := filepath.Ext(path)
	if ext == "" {
		return true
	}
	for _, valid := range p.opts.YAMLExtensions {
		if ext == valid {
			return true
		}
	}
	return false
}

// ParseInto 实现 inventory.Parser
func (p *Plugin) ParseInto(inv *inventory.Inventory, path string) error {
	return p.Parse(inv, path)
}

// Parse 加载 path 并写入 graph
// 任何错误都会中止解析，此时 graph 中的部分数据不保证一致
func (p *Plugin) Parse(graph Graph, path string) error {
	log := logger.Logger.With().
		Str("plugin", p.Name()).
		Str("source", path).
		Str("parse_id", uuid.NewString()).
		Logger()

	doc, err := p.loader.Load(path)
	if err != nil {
		return errors.NewDocumentLoadError(path, err)
	}

	if err := p.parse(graph, doc, log); err != nil {
		if pe, ok := err.(*errors.ParseError); ok {
			return pe.WithPath(path)
		}
		return err
	}
	return nil
}

// ParseDocument 将已加载的文档写入 graph
func (p *Plugin) ParseDocument(graph Graph, doc *node.Node) error {
	return p.parse(graph, doc, logger.Logger.With().Str("plugin", p.Name()).Logger())
}

func (p *Plugin) parse(graph Graph, doc *node.Node, log zerolog.Logger) error {
	diag := p.diag
	if diag == nil {
		diag = logger.NewZerologDiagnostics(log)
	}

	d, err := p.validate(doc, diag)
	if err != nil {
		return err
	}

	r := &resolver{
		graph:    graph,
		expander: p.expander,
		diag:     diag,
		log:      log,
	}

	if d.groups.IsMapping() {
		for _, pair := range d.groups.Pairs {
			name, err := groupName(pair.Key)
			if err != nil {
				return err
			}
			if _, err := r.resolveGroup(name, pair.Value); err != nil {
				return err
			}
		}
	}

	if err := r.resolveHosts(d.hosts); err != nil {
		return err
	}

	log.Debug().Msg("inventory source parsed")
	return nil
}

// resolver 保存一次解析的上下文
type resolver struct {
	graph    Graph
	expander hostpattern.Expander
	diag     logger.Diagnostics
	log      zerolog.Logger
}
