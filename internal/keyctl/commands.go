// Package keyctl implements the operator command line: it issues and lists
// access keys and lists accounts directly against the record store, without
// going through the HTTP API.
package keyctl

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/keyvault/internal/logging"
	"github.com/dmitrijs2005/keyvault/internal/server"
	"github.com/dmitrijs2005/keyvault/internal/server/config"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/keyvault/internal/server/services"
	"github.com/spf13/cobra"
)

type options struct {
	configFile string
	backend    string
	dataFile   string
	dsn        string
}

// NewRootCmd builds the keyctl command tree. Output goes to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "keyctl",
		Short:         "Manage keyvault access keys and accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "JSON config file")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "storage backend (file, postgres, s3)")
	root.PersistentFlags().StringVarP(&opts.dataFile, "data-file", "f", "", "data file for the file backend")
	root.PersistentFlags().StringVarP(&opts.dsn, "dsn", "d", "", "database DSN for the postgres backend")

	root.AddCommand(newIssueCmd(opts), newListCmd(opts), newAccountsCmd(opts))
	return root
}

func (o *options) load() (*config.Config, error) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	if o.configFile != "" {
		if err := cfg.LoadFile(o.configFile); err != nil {
			return nil, err
		}
	}
	if o.backend != "" {
		cfg.StorageBackend = o.backend
	}
	if o.dataFile != "" {
		cfg.DataFile = o.dataFile
	}
	if o.dsn != "" {
		cfg.DatabaseDSN = o.dsn
	}
	return cfg, nil
}

// withStore opens the configured store, runs fn and closes the store.
func (o *options) withStore(ctx context.Context, fn func(cfg *config.Config, store repomanager.RepositoryManager) error) error {
	cfg, err := o.load()
	if err != nil {
		return err
	}
	store, err := repomanager.Open(ctx, server.StoreOptions(cfg))
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func newIssueCmd(opts *options) *cobra.Command {
	var duration string

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a new access key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			class, err := models.ParseDurationClass(duration)
			if err != nil {
				return err
			}
			return opts.withStore(cmd.Context(), func(cfg *config.Config, store repomanager.RepositoryManager) error {
				ks, err := services.NewKeyService(store, cfg, logging.Nop{}, nil)
				if err != nil {
					return err
				}
				key, err := ks.Issue(cmd.Context(), class)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), key.Key)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&duration, "duration", string(models.DurationTrial), "duration class (trial, standard, permanent)")
	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List issued access keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(cfg *config.Config, store repomanager.RepositoryManager) error {
				ks, err := services.NewKeyService(store, cfg, logging.Nop{}, nil)
				if err != nil {
					return err
				}
				list, err := ks.List(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "KEY\tDURATION\tUSED\tCREATED")
				for _, k := range list {
					fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", k.Key, k.DurationClass, k.Used, k.CreatedAt.UTC().Format(time.RFC3339))
				}
				return w.Flush()
			})
		},
	}
}

func newAccountsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List registered accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(_ *config.Config, store repomanager.RepositoryManager) error {
				var list []*models.Account
				err := store.WithTx(cmd.Context(), func(ctx context.Context, repos repomanager.Repositories) error {
					var err error
					list, err = repos.Accounts().List(ctx)
					return err
				})
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "USERNAME\tCREATED\tEXPIRES")
				for _, a := range list {
					fmt.Fprintf(w, "%s\t%s\t%s\n", a.Username, a.CreatedAt.UTC().Format(time.RFC3339), a.Expiry)
				}
				return w.Flush()
			})
		},
	}
}
