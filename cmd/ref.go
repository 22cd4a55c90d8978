package cmd

import (
	"fmt"

	"github.com/foomo/keel/log"
	"github.com/foomo/nessiecatalog/content"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRefCommand manages branches and tags of the versioned store
func NewRefCommand(rv *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ref",
		Short: "Manage branches and tags",
	}
	cmd.AddCommand(
		newRefListCommand(rv),
		newRefCreateCommand(rv),
		newRefDeleteCommand(rv),
		newRefLogCommand(rv),
	)
	return cmd
}

func newRefListCommand(rv *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(log.Logger(), rv)
			if err != nil {
				return err
			}
			refs, err := client.ListReferences(cmd.Context())
			if err != nil {
				return err
			}
			for _, ref := range refs {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", ref.Type, ref.Name, ref.Hash)
			}
			return nil
		},
	}
}

func newRefCreateCommand(rv *viper.Viper) *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a branch or tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(log.Logger(), rv)
			if err != nil {
				return err
			}
			source, err := client.GetReference(cmd.Context(), fromFlag(v))
			if err != nil {
				return err
			}
			typ := content.ReferenceTypeBranch
			if tagFlag(v) {
				typ = content.ReferenceTypeTag
			}
			ref, err := client.CreateReference(cmd.Context(), args[0], typ, source)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", ref.Type, ref.Name, ref.Hash)
			return nil
		},
	}
	flags := cmd.Flags()
	addFromFlag(flags, v)
	addTagFlag(flags, v)
	return cmd
}

func newRefDeleteCommand(rv *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a branch or tag at its current head",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(log.Logger(), rv)
			if err != nil {
				return err
			}
			ref, err := client.GetReference(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if _, err := client.DeleteReference(cmd.Context(), ref); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", ref.Type, ref.Name)
			return nil
		},
	}
}

func newRefLogCommand(rv *viper.Viper) *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "log [ref]",
		Short: "Show the commit log of a reference, defaults to the catalog branch",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(log.Logger(), rv)
			if err != nil {
				return err
			}
			ref := branchFlag(rv)
			if len(args) == 1 {
				ref = args[0]
			}
			entries, err := client.CommitLog(cmd.Context(), ref, maxRecordsFlag(v))
			if err != nil {
				return err
			}
			for _, e := range entries {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", e.CommitMeta.Hash, e.CommitMeta.Author, e.CommitMeta.Message)
			}
			return nil
		},
	}
	addMaxRecordsFlag(cmd.Flags(), v)
	return cmd
}
