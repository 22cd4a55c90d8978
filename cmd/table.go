package cmd

import (
	"fmt"

	"github.com/foomo/nessiecatalog/content"
	"github.com/foomo/nessiecatalog/pkg/catalog"
	"github.com/foomo/nessiecatalog/pkg/catalogerr"
	"github.com/foomo/nessiecatalog/pkg/tableio"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NewTableCommand manages catalog tables
func NewTableCommand(rv *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Manage tables",
	}
	cmd.AddCommand(
		newTableListCommand(rv),
		newTableCreateCommand(rv),
		newTableRegisterCommand(rv),
		newTableShowCommand(rv),
		newTableRenameCommand(rv),
		newTableDropCommand(rv),
	)
	return cmd
}

func newTableListCommand(rv *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list <namespace>",
		Short: "List the tables of a namespace",
		Args:  cobra.ExactArgs(1),
		RunE: withCatalog(rv, func(cmd *cobra.Command, args []string, cat *catalog.Nessie) error {
			key, err := content.ParseKey(args[0])
			if err != nil {
				return err
			}
			idents, err := cat.ListTables(cmd.Context(), key)
			if err != nil {
				return err
			}
			for _, ident := range idents {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), ident.String())
			}
			return nil
		}),
	}
}

func newTableCreateCommand(rv *viper.Viper) *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "create <table>",
		Short: "Create a table from an iceberg schema",
		Args:  cobra.ExactArgs(1),
		RunE: withCatalog(rv, func(cmd *cobra.Command, args []string, cat *catalog.Nessie) error {
			ident, err := catalog.ParseTableIdent(args[0])
			if err != nil {
				return err
			}
			raw := schemaFlag(v)
			if raw == "" {
				return catalogerr.NewValidationError("schema", "must not be empty")
			}
			schema := tableio.Schema{}
			if err := json.Unmarshal([]byte(raw), &schema); err != nil {
				return catalogerr.NewValidationError("schema", "invalid json: %s", err)
			}
			table, err := cat.CreateTable(cmd.Context(), ident.Namespace, catalog.TableCreation{
				Name:       ident.Name,
				Location:   locationFlag(v),
				Schema:     schema,
				Properties: propertiesFlag(v),
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", table.Ident, table.MetadataLocation)
			return nil
		}),
	}
	flags := cmd.Flags()
	addSchemaFlag(flags, v)
	addLocationFlag(flags, v)
	addPropertiesFlag(flags, v)
	return cmd
}

func newTableRegisterCommand(rv *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "register <table> <metadata-location>",
		Short: "Register an existing metadata file as table",
		Args:  cobra.ExactArgs(2),
		RunE: withCatalog(rv, func(cmd *cobra.Command, args []string, cat *catalog.Nessie) error {
			ident, err := catalog.ParseTableIdent(args[0])
			if err != nil {
				return err
			}
			table, err := cat.RegisterTable(cmd.Context(), ident, args[1])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", table.Ident, table.MetadataLocation)
			return nil
		}),
	}
}

func newTableShowCommand(rv *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "show <table>",
		Short: "Show the metadata pointer and metadata of a table",
		Args:  cobra.ExactArgs(1),
		RunE: withCatalog(rv, func(cmd *cobra.Command, args []string, cat *catalog.Nessie) error {
			ident, err := catalog.ParseTableIdent(args[0])
			if err != nil {
				return err
			}
			table, err := cat.LoadTable(cmd.Context(), ident)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(map[string]any{
				"table":             table.Ident.String(),
				"metadata-location": table.MetadataLocation,
				"content":           table.Content,
				"metadata":          table.Metadata,
			}, "", "  ")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}),
	}
}

func newTableRenameCommand(rv *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <from> <to>",
		Short: "Rename a table in a single commit",
		Args:  cobra.ExactArgs(2),
		RunE: withCatalog(rv, func(cmd *cobra.Command, args []string, cat *catalog.Nessie) error {
			src, err := catalog.ParseTableIdent(args[0])
			if err != nil {
				return err
			}
			dst, err := catalog.ParseTableIdent(args[1])
			if err != nil {
				return err
			}
			if err := cat.RenameTable(cmd.Context(), src, dst); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "renamed %s to %s\n", src, dst)
			return nil
		}),
	}
}

func newTableDropCommand(rv *viper.Viper) *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "drop <table>",
		Short: "Drop a table",
		Args:  cobra.ExactArgs(1),
		RunE: withCatalog(rv, func(cmd *cobra.Command, args []string, cat *catalog.Nessie) error {
			ident, err := catalog.ParseTableIdent(args[0])
			if err != nil {
				return err
			}
			if err := cat.DropTable(cmd.Context(), ident, purgeFlag(v)); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "dropped %s\n", ident)
			return nil
		}),
	}
	addPurgeFlag(cmd.Flags(), v)
	return cmd
}
