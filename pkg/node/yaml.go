package node

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Decode 解析 YAML（或 JSON）文本
// 空文档返回 null 节点，多文档时只取第一个
func Decode(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return FromYAML(&doc)
}

// FromYAML 将 yaml.Node 转换为 Node，展开别名和 << 合并键
func FromYAML(y *yaml.Node) (*Node, error) {
	c := &yamlConverter{active: make(map[*yaml.Node]bool)}
	return c.convert(y)
}

type yamlConverter struct {
	active map[*yaml.Node]bool // 正在展开的锚点

	decoded int // 已转换的节点数
	aliased int // 其中经由别名展开的节点数
}

// 别名展开的限制，与 yaml.v3 解码到 Go 值时的检查一致
const (
	aliasRatioRangeLow  = 400000
	aliasRatioRangeHigh = 4000000
	aliasRatioRange     = float64(aliasRatioRangeHigh - aliasRatioRangeLow)
)

// ErrExcessiveAliasing 别名展开后的节点数远超文档本身
var ErrExcessiveAliasing = errors.New("document contains excessive aliasing")

func allowedAliasRatio(decoded int) float64 {
	switch {
	case decoded <= aliasRatioRangeLow:
		return 0.99
	case decoded >= aliasRatioRangeHigh:
		return 0.10
	default:
		return 0.99 - 0.89*(float64(decoded-aliasRatioRangeLow)/aliasRatioRange)
	}
}

// count 记录一个节点，展开比例超限时返回错误
func (c *yamlConverter) count() error {
	c.decoded++
	if len(c.active) > 0 {
		c.aliased++
	}
	if c.aliased > 100 && c.decoded > 1000 &&
		float64(c.aliased)/float64(c.decoded) > allowedAliasRatio(c.decoded) {
		return ErrExcessiveAliasing
	}
	return nil
}

func (c *yamlConverter) convert(y *yaml.Node) (*Node, error) {
	if y == nil {
		return Null(), nil
	}
	if err := c.count(); err != nil {
		return nil, fmt.Errorf("line %d: %w", y.Line, err)
	}

	switch y.Kind {
	case 0:
		return Null(), nil
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return Null(), nil
		}
		return c.convert(y.Content[0])
	case yaml.AliasNode:
		if c.active[y.Alias] {
			return nil, fmt.Errorf("line %d: alias %q references itself", y.Line, y.Value)
		}
		c.active[y.Alias] = true
		defer delete(c.active, y.Alias)
		return c.convert(y.Alias)
	case yaml.ScalarNode:
		return c.scalar(y)
	case yaml.SequenceNode:
		n := &Node{Kind: KindSequence, Tag: y.ShortTag(), Line: y.Line, Column: y.Column}
		for _, item := range y.Content {
			child, err := c.convert(item)
			if err != nil {
				return nil, err
			}
			n.Items = append(n.Items, child)
		}
		return n, nil
	case yaml.MappingNode:
		return c.mapping(y)
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node kind %d", y.Line, y.Kind)
	}
}

func (c *yamlConverter) scalar(y *yaml.Node) (*Node, error) {
	tag := y.ShortTag()
	if tag == "!!null" {
		return &Node{Kind: KindNull, Tag: tag, Line: y.Line, Column: y.Column}, nil
	}

	var v interface{}
	if err := y.Decode(&v); err != nil {
		return nil, fmt.Errorf("line %d: %w", y.Line, err)
	}
	return &Node{
		Kind:   KindScalar,
		Tag:    tag,
		Value:  v,
		Text:   y.Value,
		Line:   y.Line,
		Column: y.Column,
	}, nil
}

// mapping 转换 mapping 节点
// 重复键保留首次出现的位置和最后一次的值；显式键优先于 << 合并的键
func (c *yamlConverter) mapping(y *yaml.Node) (*Node, error) {
	n := &Node{Kind: KindMapping, Tag: y.ShortTag(), Line: y.Line, Column: y.Column}
	index := make(map[string]int)
	var merged []Pair

	for i := 0; i+1 < len(y.Content); i += 2 {
		keyNode := y.Content[i]
		valueNode := y.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.ShortTag() == "!!merge" {
			pairs, err := c.mergeSource(valueNode)
			if err != nil {
				return nil, err
			}
			merged = append(merged, pairs...)
			continue
		}

		key, err := c.convert(keyNode)
		if err != nil {
			return nil, err
		}
		value, err := c.convert(valueNode)
		if err != nil {
			return nil, err
		}

		id := pairID(key)
		if pos, ok := index[id]; ok {
			n.Pairs[pos].Value = value
			continue
		}
		index[id] = len(n.Pairs)
		n.Pairs = append(n.Pairs, Pair{Key: key, Value: value})
	}

	for _, p := range merged {
		id := pairID(p.Key)
		if _, ok := index[id]; ok {
			continue
		}
		index[id] = len(n.Pairs)
		n.Pairs = append(n.Pairs, p)
	}

	return n, nil
}

// mergeSource 展开 << 的值：mapping、指向 mapping 的别名或它们的列表
// 列表中靠前的来源优先
func (c *yamlConverter) mergeSource(y *yaml.Node) ([]Pair, error) {
	src, err := c.convert(y)
	if err != nil {
		return nil, err
	}

	switch src.KindOf() {
	case KindMapping:
		return src.Pairs, nil
	case KindSequence:
		var pairs []Pair
		seen := make(map[string]bool)
		for _, item := range src.Items {
			if !item.IsMapping() {
				return nil, fmt.Errorf("line %d: map merge requires map or sequence of maps as the value", y.Line)
			}
			for _, p := range item.Pairs {
				id := pairID(p.Key)
				if seen[id] {
					continue
				}
				seen[id] = true
				pairs = append(pairs, p)
			}
		}
		return pairs, nil
	default:
		return nil, fmt.Errorf("line %d: map merge requires map or sequence of maps as the value", y.Line)
	}
}

func pairID(k *Node) string {
	if k.IsNull() {
		return "!!null"
	}
	return k.Tag + "\x00" + k.String()
}
