// Package node 提供解析后文档的通用树结构。
//
// Node 是 {Null, Mapping, Sequence, Scalar} 的标签联合体，
// 由 YAML/JSON 文档转换而来，解析结束后即丢弃。
package node

import (
	"fmt"
	"time"
)

// Kind 节点类型
type Kind int

const (
	KindNull Kind = iota
	KindMapping
	KindSequence
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	case KindScalar:
		return "scalar"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Pair mapping 中的一个键值对
type Pair struct {
	Key   *Node
	Value *Node
}

// Node 文档树节点，nil 与 KindNull 等价
type Node struct {
	Kind  Kind
	Tag   string      // YAML 短标签，如 !!str、!!int
	Value interface{} // 标量的原生值
	Text  string      // 标量的源文本
	Pairs []Pair      // mapping 的键值对，保持源顺序
	Items []*Node     // sequence 的元素

	Line   int
	Column int
}

// KindOf 返回节点类型，nil 视为 null
func (n *Node) KindOf() Kind {
	if n == nil {
		return KindNull
	}
	return n.Kind
}

// IsNull 是否为 null
func (n *Node) IsNull() bool { return n.KindOf() == KindNull }

// IsMapping 是否为 mapping
func (n *Node) IsMapping() bool { return n.KindOf() == KindMapping }

// IsSequence 是否为 sequence
func (n *Node) IsSequence() bool { return n.KindOf() == KindSequence }

// IsScalar 是否为标量
func (n *Node) IsScalar() bool { return n.KindOf() == KindScalar }

// IsString 是否为字符串标量
func (n *Node) IsString() bool {
	if !n.IsScalar() {
		return false
	}
	_, ok := n.Value.(string)
	return ok
}

// Str 返回字符串标量的值
func (n *Node) Str() (string, bool) {
	if !n.IsScalar() {
		return "", false
	}
	s, ok := n.Value.(string)
	return s, ok
}

// Get 按字符串键查找 mapping 中的值
func (n *Node) Get(key string) (*Node, bool) {
	if !n.IsMapping() {
		return nil, false
	}
	for _, p := range n.Pairs {
		if s, ok := p.Key.Str(); ok && s == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Len 返回 mapping 或 sequence 的元素个数
func (n *Node) Len() int {
	switch n.KindOf() {
	case KindMapping:
		return len(n.Pairs)
	case KindSequence:
		return len(n.Items)
	default:
		return 0
	}
}

// TypeName 返回用于错误消息的类型名
func (n *Node) TypeName() string {
	switch n.KindOf() {
	case KindNull:
		return "null"
	case KindMapping:
		return "dict"
	case KindSequence:
		return "list"
	}
	switch n.Value.(type) {
	case string:
		return "str"
	case bool:
		return "bool"
	case int, int64, uint64:
		return "int"
	case float64:
		return "float"
	case time.Time:
		return "timestamp"
	default:
		return fmt.Sprintf("%T", n.Value)
	}
}

// String 返回节点的简短文本表示
func (n *Node) String() string {
	switch n.KindOf() {
	case KindNull:
		return "null"
	case KindScalar:
		if n.Text != "" {
			return n.Text
		}
		return fmt.Sprint(n.Value)
	default:
		return fmt.Sprintf("%v", n.Interface())
	}
}

// Null 构造 null 节点
func Null() *Node {
	return &Node{Kind: KindNull, Tag: "!!null"}
}

// String 构造字符串节点
func String(s string) *Node {
	return &Node{Kind: KindScalar, Tag: "!!str", Value: s, Text: s}
}

// Mapping 构造只含单个键值对的 mapping 节点
func Mapping(key string, value *Node) *Node {
	return &Node{Kind: KindMapping, Tag: "!!map", Pairs: []Pair{{Key: String(key), Value: value}}}
}
