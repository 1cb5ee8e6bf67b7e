package node

import "fmt"

// Visitor 按节点类型分发，实现者必须处理全部四种类型
type Visitor interface {
	VisitNull() error
	VisitMapping(pairs []Pair) error
	VisitSequence(items []*Node) error
	VisitScalar(value interface{}, text string) error
}

// Accept 将节点分发给 visitor
func (n *Node) Accept(v Visitor) error {
	switch n.KindOf() {
	case KindNull:
		return v.VisitNull()
	case KindMapping:
		return v.VisitMapping(n.Pairs)
	case KindSequence:
		return v.VisitSequence(n.Items)
	case KindScalar:
		return v.VisitScalar(n.Value, n.Text)
	default:
		return fmt.Errorf("unknown node kind %v", n.Kind)
	}
}

// Interface 将节点转换为原生 Go 值
// mapping -> map[string]interface{}，sequence -> []interface{}
func (n *Node) Interface() interface{} {
	c := &nativeConverter{}
	if err := n.Accept(c); err != nil {
		return nil
	}
	return c.out
}

type nativeConverter struct {
	out interface{}
}

func (c *nativeConverter) VisitNull() error {
	c.out = nil
	return nil
}

func (c *nativeConverter) VisitMapping(pairs []Pair) error {
	m := make(map[string]interface{}, len(pairs))
	for _, p := range pairs {
		m[keyString(p.Key)] = p.Value.Interface()
	}
	c.out = m
	return nil
}

func (c *nativeConverter) VisitSequence(items []*Node) error {
	s := make([]interface{}, 0, len(items))
	for _, item := range items {
		s = append(s, item.Interface())
	}
	c.out = s
	return nil
}

func (c *nativeConverter) VisitScalar(value interface{}, _ string) error {
	c.out = value
	return nil
}

// keyString 将任意键转换为字符串
func keyString(k *Node) string {
	if s, ok := k.Str(); ok {
		return s
	}
	return k.String()
}
