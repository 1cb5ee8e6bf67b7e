package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	// PluginName group_yaml 插件的名称，文档中 plugin 字段必须与之相同
	PluginName = "group_yaml"

	// EnvYAMLFilenameExt 覆盖 yaml_extensions 的环境变量，逗号分隔
	EnvYAMLFilenameExt = "ANSIBLE_YAML_FILENAME_EXT"
	// EnvInventoryPluginExts 覆盖 yaml_extensions 的备用环境变量
	EnvInventoryPluginExts = "ANSIBLE_INVENTORY_PLUGIN_EXTS"
)

// 配置文件中 yaml_extensions 的候选键，按优先级排列
var extensionKeys = []string{
	"defaults.yaml_valid_extensions",
	"inventory_plugin_yaml.yaml_valid_extensions",
	"yaml_extensions",
}

// Options 插件选项
type Options struct {
	Plugin         string   // 插件名称
	YAMLExtensions []string // 接受的文件扩展名
}

// DefaultOptions 返回默认选项
func DefaultOptions() *Options {
	return &Options{
		Plugin:         PluginName,
		YAMLExtensions: []string{".yaml", ".yml", ".json"},
	}
}

// LoadOptions 加载配置的显式输入
type LoadOptions struct {
	// ConfigFilePath 配置文件路径，为空时只使用环境变量和默认值
	ConfigFilePath string
}

// Provider 提供插件选项
type Provider interface {
	Load(opts LoadOptions) (*Options, error)
}

type viperProvider struct{}

// NewProvider 创建基于 viper 的配置提供者
func NewProvider() Provider {
	return &viperProvider{}
}

// Load 按 环境变量 > 配置文件 > 默认值 的顺序解析选项
func (p *viperProvider) Load(opts LoadOptions) (*Options, error) {
	defaults := DefaultOptions()

	v := viper.New()
	v.SetDefault("plugin", defaults.Plugin)
	if err := v.BindEnv("yaml_extensions_env", EnvYAMLFilenameExt, EnvInventoryPluginExts); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if opts.ConfigFilePath != "" {
		if _, err := os.Stat(opts.ConfigFilePath); err != nil {
			return nil, fmt.Errorf("config file not found: %s: %w", opts.ConfigFilePath, err)
		}
		v.SetConfigFile(opts.ConfigFilePath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", opts.ConfigFilePath, err)
		}
	}

	out := &Options{
		Plugin:         strings.TrimSpace(v.GetString("plugin")),
		YAMLExtensions: defaults.YAMLExtensions,
	}
	if out.Plugin == "" {
		return nil, fmt.Errorf("option plugin must not be empty")
	}

	if v.IsSet("yaml_extensions_env") {
		out.YAMLExtensions = toStringSlice(v.Get("yaml_extensions_env"))
		return out, nil
	}
	for _, key := range extensionKeys {
		if v.IsSet(key) {
			out.YAMLExtensions = toStringSlice(v.Get(key))
			break
		}
	}

	return out, nil
}

// toStringSlice 接受逗号分隔字符串或列表
func toStringSlice(raw interface{}) []string {
	var items []string
	switch val := raw.(type) {
	case string:
		items = strings.Split(val, ",")
	case []string:
		items = val
	case []interface{}:
		for _, item := range val {
			items = append(items, fmt.Sprint(item))
		}
	default:
		items = []string{fmt.Sprint(val)}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
