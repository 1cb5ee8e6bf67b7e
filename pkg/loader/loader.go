package loader

import (
	"fmt"
	"os"

	"github.com/jimyag/groupyaml/pkg/node"
)

// Loader 将文件加载为通用文档树
type Loader interface {
	Load(path string) (*node.Node, error)
}

// YAMLLoader 使用 yaml.v3 加载 YAML/JSON 文件
type YAMLLoader struct{}

// NewYAMLLoader 创建 YAML 加载器
func NewYAMLLoader() *YAMLLoader {
	return &YAMLLoader{}
}

// Load 读取并解析文件
func (l *YAMLLoader) Load(path string) (*node.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory file: %w", err)
	}

	doc, err := node.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	return doc, nil
}

// Func 允许用普通函数实现 Loader
type Func func(path string) (*node.Node, error)

// Load 调用函数本身
func (f Func) Load(path string) (*node.Node, error) {
	return f(path)
}
