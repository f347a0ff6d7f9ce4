package cli

import (
	"context"

	"github.com/spf13/cobra"

	"pagebuilder/internal/domain"
	mcpserver "pagebuilder/internal/mcp"
	"pagebuilder/internal/service"
)

func newServeCmd() *cobra.Command {
	var (
		documentID string
		watchDir   string
		noAutosave bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editor to agents over MCP on stdio",
		Long: `serve opens a document in the editor and exposes it as an MCP server on
stdin/stdout. Dirty documents are autosaved on the configured schedule and
JSON files dropped into the import directory are opened and saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			emitter := service.EmitterFunc(func(ctx context.Context, event string, data any) {
				switch v := data.(type) {
				case service.DocumentChange:
					logger.Debug(event, "document", v.DocumentID, "label", v.Label)
				case service.CatalogError:
					logger.Warn(event, "element", v.ElementID, "err", v.Error)
				default:
					logger.Debug(event)
				}
			})

			a, err := openApp(ctx, emitter)
			if err != nil {
				return err
			}
			defer a.Close()

			if documentID != "" {
				if _, err := a.editor.Load(documentID); err != nil {
					return err
				}
			} else {
				a.editor.NewDocument("Untitled")
			}
			doc := a.editor.Document()
			logger.Info("editing", "document", doc.ID, "name", doc.Name)

			var catalogSvc *service.CatalogService
			src, err := openCatalog(ctx, a.cfg, logger)
			if err != nil {
				return err
			}
			if src != nil {
				defer src.Close()
				catalogSvc = service.NewCatalogService(a.editor, src, emitter, logger)
				defer catalogSvc.WaitRunning(context.Background())
				refreshCatalogBlocks(ctx, catalogSvc, doc)
			}

			bg := service.NewBackground(a.editor, emitter, logger)
			defer bg.Stop()
			if a.cfg.Autosave.Enabled && !noAutosave {
				if err := bg.StartAutosave(a.cfg.Autosave.Schedule); err != nil {
					return err
				}
			}
			if watchDir == "" {
				watchDir = a.cfg.Import.WatchDir
			}
			if watchDir != "" {
				if err := bg.WatchImports(watchDir); err != nil {
					return err
				}
			}

			srv := mcpserver.New(mcpserver.Deps{
				Editor:  a.editor,
				Catalog: catalogSvc,
				Store:   a.docs,
				Logger:  logger,
			})
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ServeStdio() }()

			select {
			case <-ctx.Done():
				err = ctx.Err()
			case err = <-errCh:
			}

			if a.editor.Dirty() {
				if saveErr := a.editor.Save(); saveErr != nil {
					printWarning(cmd.ErrOrStderr(), "final save failed: %v", saveErr)
				} else {
					logger.Info("saved on exit", "document", a.editor.Document().ID)
				}
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&documentID, "document", "d", "", "document to open (default: a new document)")
	cmd.Flags().StringVar(&watchDir, "watch", "", "directory watched for document JSON files (overrides config)")
	cmd.Flags().BoolVar(&noAutosave, "no-autosave", false, "disable autosave")
	return cmd
}

// refreshCatalogBlocks loads the catalog data of every catalog-aware
// element in the background.
func refreshCatalogBlocks(ctx context.Context, svc *service.CatalogService, doc *domain.Document) {
	for id, el := range doc.Elements {
		switch el.Kind {
		case domain.KindPropertyFilter, domain.KindProductFilter,
			domain.KindProductGrid, domain.KindFilteredProducts, domain.KindProductCarousel,
			domain.KindCatalogTree:
			svc.RefreshAsync(ctx, id)
		}
	}
}
