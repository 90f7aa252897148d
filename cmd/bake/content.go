package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-bake/pkg/content"
)

var errMemoryImport = errors.New("content import needs content.driver sqlite; the memory store is not persisted")

func newContentCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Manage the content store",
	}
	cmd.AddCommand(newContentImportCmd(root), newContentListCmd(root))
	return cmd
}

func newContentImportCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>...",
		Short: "Import YAML documents into the sqlite content store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if a.store == nil {
				return errMemoryImport
			}
			total := 0
			for _, path := range args {
				n, err := importFile(path, func(doc content.Document) error {
					return a.store.Put(ctx, doc)
				})
				total += n
				if err != nil {
					return err
				}
				a.log.Debug("imported", zap.String("file", path), zap.Int("documents", n))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d documents\n", total)
			return nil
		},
	}
}

func newContentListCmd(root *rootOptions) *cobra.Command {
	var (
		docType   string
		published bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored documents, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			var docs []content.Document
			if published {
				docs, err = a.repo.PublishedContent(ctx, docType)
			} else {
				docs, err = a.repo.AllContent(ctx, docType)
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "URI\tTYPE\tSTATUS\tTITLE")
			for _, doc := range docs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", doc.URI(), doc.Type(), doc.Status(), title(doc))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&docType, "type", "", "only documents of this type")
	cmd.Flags().BoolVar(&published, "published", false, "only published documents")
	return cmd
}

func title(doc content.Document) string {
	if v, ok := doc[content.KeyTitle]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}
