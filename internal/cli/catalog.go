package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pagebuilder/internal/secret"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the configured product catalog",
	}
	cmd.AddCommand(newCatalogCheckCmd())
	cmd.AddCommand(newCatalogPasswordCmd())
	return cmd
}

func newCatalogCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Connect to the catalog and count its categories and properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			src, err := openCatalog(ctx, cfg, loggerFromContext(ctx))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if src == nil {
				printWarning(out, "no catalog configured")
				return nil
			}
			defer src.Close()

			cats, err := src.Categories(ctx)
			if err != nil {
				return err
			}
			props, err := src.Properties(ctx)
			if err != nil {
				return err
			}
			printSuccess(out, "Catalog reachable")
			printKeyValue(out, "driver", cfg.Catalog.Driver)
			printKeyValue(out, "database", cfg.Catalog.Database)
			printKeyValue(out, "categories", StyleNumber.Render(fmt.Sprint(len(cats))))
			printKeyValue(out, "properties", StyleNumber.Render(fmt.Sprint(len(props))))
			return nil
		},
	}
}

func newCatalogPasswordCmd() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Store the catalog password (read from stdin) in the keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := configFromContext(cmd.Context()).Catalog
			key := secret.CatalogKey(c.Driver, c.Host, c.Database)
			out := cmd.OutOrStdout()
			if remove {
				if err := secrets.Delete(key); err != nil {
					return err
				}
				printSuccess(out, "Removed %s", key)
				return nil
			}

			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				return fmt.Errorf("empty password")
			}
			if err := secrets.Set(key, []byte(password)); err != nil {
				return err
			}
			printSuccess(out, "Stored %s", key)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remove, "delete", false, "remove the stored password")
	return cmd
}
