package inventory

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInventory(t *testing.T) *Inventory {
	t.Helper()

	inv := NewInventory()
	web, err := inv.EnsureGroup("web")
	require.NoError(t, err)
	frontend, err := inv.EnsureGroup("frontend")
	require.NoError(t, err)
	require.NoError(t, inv.AddChildGroup(web, frontend))

	web1, err := inv.AddHost("web1", 0)
	require.NoError(t, err)
	require.NoError(t, inv.AddHostToGroup(web1, frontend, 0))

	db, err := inv.EnsureGroup("db")
	require.NoError(t, err)
	db1, err := inv.AddHost("db1", 5432)
	require.NoError(t, err)
	require.NoError(t, inv.AddHostToGroup(db1, db, 0))

	_, err = inv.AddHost("lonely", 0)
	require.NoError(t, err)

	inv.Reconcile()
	return inv
}

func TestEnsureGroup(t *testing.T) {
	inv := NewInventory()

	g1, err := inv.EnsureGroup("web")
	require.NoError(t, err)
	g2, err := inv.EnsureGroup("web")
	require.NoError(t, err)
	assert.Same(t, g1, g2)

	all, err := inv.EnsureGroup(AllGroup)
	require.NoError(t, err)
	assert.Equal(t, []string{UngroupedGroup}, all.Children)

	_, err = inv.EnsureGroup("")
	assert.True(t, errors.Is(err, ErrInvalidName))
}

func TestAddChildGroup(t *testing.T) {
	inv := NewInventory()
	a, _ := inv.EnsureGroup("a")
	b, _ := inv.EnsureGroup("b")
	c, _ := inv.EnsureGroup("c")

	require.NoError(t, inv.AddChildGroup(a, b))
	require.NoError(t, inv.AddChildGroup(a, b))
	assert.Equal(t, []string{"b"}, a.Children)
	assert.Equal(t, []string{"a"}, b.Parents)

	require.NoError(t, inv.AddChildGroup(b, c))
	all, _ := inv.Group(AllGroup)
	ungrouped, _ := inv.Group(UngroupedGroup)

	tests := []struct {
		name          string
		parent, child *Group
	}{
		{name: "self", parent: a, child: a},
		{name: "direct loop", parent: b, child: a},
		{name: "transitive loop", parent: c, child: a},
		{name: "all as child", parent: c, child: all},
		{name: "all under ungrouped", parent: ungrouped, child: all},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := inv.AddChildGroup(tt.parent, tt.child)
			assert.True(t, errors.Is(err, ErrRecursiveGroup), "got %v", err)
		})
	}

	assert.Empty(t, all.Parents)

	// 菱形结构不是环
	require.NoError(t, inv.AddChildGroup(a, c))
	assert.ElementsMatch(t, []string{"a", "b"}, c.Parents)
}

func TestAddHost(t *testing.T) {
	inv := NewInventory()

	h1, err := inv.AddHost("web1", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, h1.Port)
	assert.NotContains(t, h1.Vars, "ansible_port")

	h2, err := inv.AddHost("web1", 2222)
	require.NoError(t, err)
	assert.Same(t, h1, h2)
	assert.Equal(t, 2222, h1.Port)
	assert.Equal(t, 2222, h1.Vars["ansible_port"])

	// 不带端口重复添加不会清除端口
	_, err = inv.AddHost("web1", 0)
	require.NoError(t, err)
	assert.Equal(t, 2222, h1.Port)

	all, _ := inv.Group(AllGroup)
	assert.Equal(t, []string{"web1"}, all.Hosts)

	_, err = inv.AddHost("", 0)
	assert.True(t, errors.Is(err, ErrInvalidName))
}

func TestAddHostToGroup(t *testing.T) {
	inv := NewInventory()
	host, _ := inv.AddHost("web1", 0)
	group, _ := inv.EnsureGroup("web")

	require.NoError(t, inv.AddHostToGroup(host, group, 8022))
	require.NoError(t, inv.AddHostToGroup(host, group, 0))
	assert.Equal(t, []string{"web"}, host.Groups)
	assert.Equal(t, []string{"web1"}, group.Hosts)
	assert.Equal(t, 8022, host.Port)
}

func TestSetVariable(t *testing.T) {
	inv := NewInventory()
	host, _ := inv.AddHost("web1", 0)
	group, _ := inv.EnsureGroup("web")

	inv.SetVariable(host, "env", "dev")
	inv.SetVariable(host, "env", "prod")
	inv.SetVariable(group, "http_port", 80)

	assert.Equal(t, "prod", host.Vars["env"])
	assert.Equal(t, 80, group.Vars["http_port"])
}

func TestReconcile(t *testing.T) {
	inv := sampleInventory(t)

	all, _ := inv.Group(AllGroup)
	assert.ElementsMatch(t, []string{UngroupedGroup, "db", "web"}, all.Children)

	ungrouped, _ := inv.Group(UngroupedGroup)
	assert.Equal(t, []string{"lonely"}, ungrouped.Hosts)

	// 之后加入组的主机从 ungrouped 中移除
	lonely, _ := inv.Host("lonely")
	db, _ := inv.Group("db")
	require.NoError(t, inv.AddHostToGroup(lonely, db, 0))
	inv.Reconcile()
	assert.Empty(t, ungrouped.Hosts)
	assert.Equal(t, []string{"db"}, lonely.Groups)

	// 重复调用不改变结果
	inv.Reconcile()
	assert.ElementsMatch(t, []string{UngroupedGroup, "db", "web"}, all.Children)
}

func TestHostVarsPrecedence(t *testing.T) {
	inv := sampleInventory(t)

	all, _ := inv.Group(AllGroup)
	web, _ := inv.Group("web")
	frontend, _ := inv.Group("frontend")
	web1, _ := inv.Host("web1")

	inv.SetVariable(all, "x", "all")
	inv.SetVariable(all, "z", "all")
	inv.SetVariable(web, "x", "web")
	inv.SetVariable(web, "y", "web")
	inv.SetVariable(frontend, "x", "frontend")
	inv.SetVariable(web1, "z", "host")

	vars, err := inv.HostVars("web1")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"x": "frontend", "y": "web", "z": "host"}, vars)

	_, err = inv.HostVars("missing")
	assert.Error(t, err)
}

func TestRenderGraph(t *testing.T) {
	inv := sampleInventory(t)

	var buf bytes.Buffer
	require.NoError(t, inv.RenderGraph(&buf, AllGroup))
	want := `@all:
  |--@db:
  |  |--db1
  |--@ungrouped:
  |  |--lonely
  |--@web:
  |  |--@frontend:
  |  |  |--web1
`
	assert.Equal(t, want, buf.String())

	buf.Reset()
	require.NoError(t, inv.RenderGraph(&buf, "web"))
	assert.Equal(t, "@web:\n  |--@frontend:\n  |  |--web1\n", buf.String())

	assert.Error(t, inv.RenderGraph(&buf, "missing"))
}

func TestList(t *testing.T) {
	inv := sampleInventory(t)
	web, _ := inv.Group("web")
	inv.SetVariable(web, "http_port", 80)

	list, err := inv.List(false)
	require.NoError(t, err)

	meta := list["_meta"].(map[string]interface{})
	hostvars := meta["hostvars"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"http_port": 80}, hostvars["web1"])
	assert.Equal(t, map[string]interface{}{"ansible_port": 5432}, hostvars["db1"])

	assert.Equal(t, map[string]interface{}{"children": []string{"db", "ungrouped", "web"}}, list["all"])
	assert.Equal(t, map[string]interface{}{"hosts": []string{"web1"}}, list["frontend"])
	assert.Equal(t, map[string]interface{}{"children": []string{"frontend"}}, list["web"])

	exported, err := inv.List(true)
	require.NoError(t, err)
	hostvars = exported["_meta"].(map[string]interface{})["hostvars"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{}, hostvars["web1"])
	assert.Equal(t, map[string]interface{}{
		"children": []string{"frontend"},
		"vars":     map[string]interface{}{"http_port": 80},
	}, exported["web"])
}

func TestConcurrentParseTargets(t *testing.T) {
	inv := NewInventory()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			group, err := inv.EnsureGroup("shared")
			if err != nil {
				t.Error(err)
				return
			}
			host, err := inv.AddHost(fmt.Sprintf("host%d", i), 0)
			if err != nil {
				t.Error(err)
				return
			}
			inv.SetVariable(host, "index", i)
			if err := inv.AddHostToGroup(host, group, 0); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	shared, _ := inv.Group("shared")
	assert.Len(t, shared.Hosts, 8)
	assert.Len(t, inv.HostNames(), 8)
}
