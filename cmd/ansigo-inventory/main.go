package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jimyag/groupyaml/pkg/config"
	"github.com/jimyag/groupyaml/pkg/inventory"
	"github.com/jimyag/groupyaml/pkg/logger"
	"github.com/jimyag/groupyaml/pkg/plugin/groupyaml"
)

type options struct {
	inventories []string
	list        bool
	host        string
	graph       bool
	export      bool
	yaml        bool
	configFile  string
	verbosity   int
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "ansigo-inventory -i INVENTORY (--list | --host HOST | --graph [GROUP])",
		Short: "Show the inventory built from group_yaml or INI sources",
		Example: `  ansigo-inventory -i hosts.yml --list
  ansigo-inventory -i hosts.yml --host web1
  ansigo-inventory -i hosts.yml --graph web`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, args)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&opts.inventories, "inventory", "i", nil, "inventory source path (repeatable)")
	f.BoolVar(&opts.list, "list", false, "output all hosts and groups")
	f.StringVar(&opts.host, "host", "", "output the variables of one host")
	f.BoolVar(&opts.graph, "graph", false, "output the group tree, optionally rooted at GROUP")
	f.BoolVar(&opts.export, "export", false, "keep group vars on groups instead of merging them into hostvars")
	f.BoolVarP(&opts.yaml, "yaml", "y", false, "output YAML instead of JSON")
	f.StringVar(&opts.configFile, "config", "", "plugin configuration file (yaml, toml or json)")
	f.CountVarP(&opts.verbosity, "verbose", "v", "verbose mode (-vvv for all parse notices)")

	_ = cmd.MarkFlagRequired("inventory")
	cmd.MarkFlagsMutuallyExclusive("list", "host", "graph")
	cmd.MarkFlagsOneRequired("list", "host", "graph")

	return cmd
}

func run(stdout, stderr io.Writer, opts *options, args []string) error {
	logger.Init(&logger.Config{
		Level:  logger.LevelFromVerbosity(opts.verbosity),
		Output: stderr,
		Pretty: true,
	})
	display := logger.NewDisplay(stderr, opts.verbosity)

	if len(args) > 0 && !opts.graph {
		err := fmt.Errorf("unexpected argument %q, a GROUP is only accepted with --graph", args[0])
		display.Error(err.Error())
		return err
	}

	cfg, err := config.NewProvider().Load(config.LoadOptions{ConfigFilePath: opts.configFile})
	if err != nil {
		display.Error(err.Error())
		return err
	}

	plugin := groupyaml.New(cfg, groupyaml.WithDiagnostics(display))
	mgr := inventory.NewManager(plugin)
	for _, path := range opts.inventories {
		if err := mgr.Load(path); err != nil {
			display.Error(fmt.Sprintf("Unable to parse %s as an inventory source: %v", path, err))
			return err
		}
		logger.Debugf("Loaded inventory from %s", path)
	}
	inv := mgr.Inventory()

	switch {
	case opts.graph:
		root := inventory.AllGroup
		if len(args) > 0 {
			root = args[0]
		}
		if err := inv.RenderGraph(stdout, root); err != nil {
			display.Error(err.Error())
			return err
		}
		return nil
	case opts.host != "":
		vars, err := hostVars(mgr, opts.host, opts.export)
		if err != nil {
			display.Error(err.Error())
			return err
		}
		return write(stdout, vars, opts.yaml)
	default:
		data, err := inv.List(opts.export)
		if err != nil {
			display.Error(err.Error())
			return err
		}
		return write(stdout, data, opts.yaml)
	}
}

func hostVars(mgr *inventory.Manager, name string, export bool) (map[string]interface{}, error) {
	host, err := mgr.GetHost(name)
	if err != nil {
		return nil, err
	}
	if export {
		return host.Vars, nil
	}
	return mgr.Inventory().HostVars(host.Name)
}

func write(w io.Writer, v interface{}, asYAML bool) error {
	if asYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	}

	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
