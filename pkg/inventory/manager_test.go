package inventory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimyag/groupyaml/pkg/errors"
	"github.com/jimyag/groupyaml/pkg/inventory"
	"github.com/jimyag/groupyaml/pkg/logger"
	"github.com/jimyag/groupyaml/pkg/plugin/groupyaml"
)

func newManager() *inventory.Manager {
	return inventory.NewManager(groupyaml.New(nil, groupyaml.WithDiagnostics(logger.Discard)))
}

func writeInventory(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func hostNames(hosts []*inventory.Host) []string {
	names := make([]string, 0, len(hosts))
	for _, h := range hosts {
		names = append(names, h.Name)
	}
	return names
}

func TestManagerLoadGroupYAML(t *testing.T) {
	path := writeInventory(t, "hosts.yml", `plugin: group_yaml
groups:
  web:
    children:
      frontend:
hosts:
  web[1:2]:
    groups: [frontend]
  db1:
`)

	mgr := newManager()
	require.NoError(t, mgr.Load(path))

	hosts, err := mgr.GetHosts("web")
	require.NoError(t, err)
	assert.Equal(t, []string{"web1", "web2"}, hostNames(hosts))

	hosts, err = mgr.GetHosts("all")
	require.NoError(t, err)
	assert.Equal(t, []string{"db1", "web1", "web2"}, hostNames(hosts))

	hosts, err = mgr.GetHosts("db1")
	require.NoError(t, err)
	assert.Equal(t, []string{"db1"}, hostNames(hosts))

	hosts, err = mgr.GetHosts("ungrouped")
	require.NoError(t, err)
	assert.Equal(t, []string{"db1"}, hostNames(hosts))

	_, err = mgr.GetHosts("missing")
	assert.Error(t, err)

	group, err := mgr.GetGroup("web")
	require.NoError(t, err)
	assert.Equal(t, []string{"all"}, group.Parents)

	sources := mgr.Inventory().Sources
	require.Len(t, sources, 1)
	assert.Equal(t, "group_yaml", sources[0].Parser)
	assert.Equal(t, path, sources[0].Path)
	assert.NotEmpty(t, sources[0].ID)
}

func TestManagerLoadINI(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{name: "ini extension", file: "hosts.ini"},
		{name: "no extension", file: "hosts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeInventory(t, tt.file, `[web]
web1 ansible_host=10.0.0.1
`)
			mgr := newManager()
			require.NoError(t, mgr.Load(path))

			host, err := mgr.GetHost("web1")
			require.NoError(t, err)
			assert.Equal(t, "10.0.0.1", host.Vars["ansible_host"])

			sources := mgr.Inventory().Sources
			require.Len(t, sources, 1)
			assert.Equal(t, "ini", sources[0].Parser)
		})
	}
}

func TestManagerLoadMultipleSources(t *testing.T) {
	yml := writeInventory(t, "a.yml", `plugin: group_yaml
hosts:
  web1:
    vars: {env: prod}
    groups: [web]
`)
	ini := writeInventory(t, "b.ini", `[db]
db1
[web]
web2
`)

	mgr := newManager()
	require.NoError(t, mgr.Load(yml))
	require.NoError(t, mgr.Load(ini))

	hosts, err := mgr.GetHosts("web")
	require.NoError(t, err)
	assert.Equal(t, []string{"web1", "web2"}, hostNames(hosts))
	assert.Len(t, mgr.Inventory().Sources, 2)
}

func TestManagerLoadErrors(t *testing.T) {
	mgr := newManager()

	wrong := writeInventory(t, "hosts.yml", "---\nplugin: other\nhosts:\n  web1:\n")
	err := mgr.Load(wrong)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrWrongPluginIdentity), "got %v", err)
	// ini 解析器作为后备同样失败
	assert.True(t, errors.IsType(err, errors.ErrInvalidHostPattern), "got %v", err)
	assert.Empty(t, mgr.Inventory().HostNames())

	cyclic := writeInventory(t, "cyclic.yml", "plugin: group_yaml\nhosts:\n  web1:\ngroups:\n  a:\n    children:\n      a:\n")
	err = mgr.Load(cyclic)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrRecursiveGroup), "got %v", err)
	assert.Empty(t, mgr.Inventory().HostNames())
	_, err = mgr.GetGroup("a")
	assert.Error(t, err)

	err = mgr.Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	assert.Empty(t, mgr.Inventory().Sources)
	assert.Equal(t, []string{"all", "ungrouped"}, mgr.Inventory().GroupNames())
}

func TestManagerLoadCycleAcrossSources(t *testing.T) {
	first := writeInventory(t, "a.yml", "plugin: group_yaml\ngroups:\n  a:\n    children:\n      b:\n")
	second := writeInventory(t, "b.ini", "[b:children]\na\n")

	mgr := newManager()
	require.NoError(t, mgr.Load(first))

	err := mgr.Load(second)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrRecursiveGroup), "got %v", err)
	assert.Contains(t, err.Error(), second)
}
