package cmd

import (
	"fmt"
	"maps"
	"slices"

	"github.com/foomo/keel/log"
	"github.com/foomo/nessiecatalog/content"
	"github.com/foomo/nessiecatalog/pkg/catalog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewNamespaceCommand manages catalog namespaces
func NewNamespaceCommand(rv *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "namespace",
		Aliases: []string{"ns"},
		Short:   "Manage namespaces",
	}
	cmd.AddCommand(
		newNamespaceListCommand(rv),
		newNamespaceCreateCommand(rv),
		newNamespaceShowCommand(rv),
		newNamespaceUpdateCommand(rv),
		newNamespaceDropCommand(rv),
	)
	return cmd
}

func newNamespaceListCommand(rv *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list [parent]",
		Short: "List namespaces, optionally below a parent",
		Args:  cobra.MaximumNArgs(1),
		RunE: withCatalog(rv, func(cmd *cobra.Command, args []string, cat *catalog.Nessie) error {
			var parent content.Key
			if len(args) == 1 {
				var err error
				if parent, err = content.ParseKey(args[0]); err != nil {
					return err
				}
			}
			keys, err := cat.ListNamespaces(cmd.Context(), parent)
			if err != nil {
				return err
			}
			for _, key := range keys {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), key.String())
			}
			return nil
		}),
	}
}

func newNamespaceCreateCommand(rv *viper.Viper) *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "create <namespace>",
		Short: "Create a namespace",
		Args:  cobra.ExactArgs(1),
		RunE: withCatalog(rv, func(cmd *cobra.Command, args []string, cat *catalog.Nessie) error {
			key, err := content.ParseKey(args[0])
			if err != nil {
				return err
			}
			ns, err := cat.CreateNamespace(cmd.Context(), key, propertiesFlag(v))
			if err != nil {
				return err
			}
			printNamespace(cmd, ns)
			return nil
		}),
	}
	addPropertiesFlag(cmd.Flags(), v)
	return cmd
}

func newNamespaceShowCommand(rv *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "show <namespace>",
		Short: "Show a namespace and its properties",
		Args:  cobra.ExactArgs(1),
		RunE: withCatalog(rv, func(cmd *cobra.Command, args []string, cat *catalog.Nessie) error {
			key, err := content.ParseKey(args[0])
			if err != nil {
				return err
			}
			ns, err := cat.GetNamespace(cmd.Context(), key)
			if err != nil {
				return err
			}
			printNamespace(cmd, ns)
			return nil
		}),
	}
}

func newNamespaceUpdateCommand(rv *viper.Viper) *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "update <namespace>",
		Short: "Replace the properties of a namespace",
		Args:  cobra.ExactArgs(1),
		RunE: withCatalog(rv, func(cmd *cobra.Command, args []string, cat *catalog.Nessie) error {
			key, err := content.ParseKey(args[0])
			if err != nil {
				return err
			}
			ns, err := cat.UpdateNamespace(cmd.Context(), key, propertiesFlag(v))
			if err != nil {
				return err
			}
			printNamespace(cmd, ns)
			return nil
		}),
	}
	addPropertiesFlag(cmd.Flags(), v)
	return cmd
}

func newNamespaceDropCommand(rv *viper.Viper) *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "drop <namespace>",
		Short: "Drop a namespace",
		Args:  cobra.ExactArgs(1),
		RunE: withCatalog(rv, func(cmd *cobra.Command, args []string, cat *catalog.Nessie) error {
			key, err := content.ParseKey(args[0])
			if err != nil {
				return err
			}
			if err := cat.DropNamespace(cmd.Context(), key, cascadeFlag(v)); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "dropped %s\n", key)
			return nil
		}),
	}
	addCascadeFlag(cmd.Flags(), v)
	return cmd
}

// withCatalog opens the catalog around a command and releases the warehouse
// afterwards
func withCatalog(rv *viper.Viper, fn func(cmd *cobra.Command, args []string, cat *catalog.Nessie) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		cat, closer, err := newCatalog(cmd.Context(), log.Logger(), rv)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := closer(); err == nil {
				err = cerr
			}
		}()
		return fn(cmd, args, cat)
	}
}

func printNamespace(cmd *cobra.Command, ns *catalog.Namespace) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, ns.Ident.String())
	for _, k := range slices.Sorted(maps.Keys(ns.Properties)) {
		_, _ = fmt.Fprintf(out, "  %s=%s\n", k, ns.Properties[k])
	}
}
