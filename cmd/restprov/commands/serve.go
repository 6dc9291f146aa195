package commands

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/restprovider/internal/fakerest"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var (
		addr string
		seed string
		keys []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an in-memory simple REST server",
		Long: `Run an in-memory server speaking the simple REST dialect, optionally seeded
from a JSON file mapping resource names to arrays of records.

List responses carry Content-Range and X-Total-Count, so the server works with
either count header.`,
		Example: `  restprov serve --addr :3000 --seed data.json --key authors=uuid`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			remap, err := parseKeyMappings(keys)
			if err != nil {
				return err
			}

			store := fakerest.NewStore(remap)

			if seed != "" {
				file, err := os.Open(seed) // #nosec G304 -- path chosen by the user
				if err != nil {
					return fmt.Errorf("failed to open seed file: %w", err)
				}

				err = store.LoadSeed(file)
				_ = file.Close()

				if err != nil {
					return fmt.Errorf("failed to load seed file: %w", err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := fakerest.NewServer(store, fakerest.WithLogger(newLogger()))

			return server.Serve(ctx, addr, func(bound net.Addr) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving %v on http://%s\n", store.Resources(), bound)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3000", "listen address")
	cmd.Flags().StringVar(&seed, "seed", "", "JSON seed file")
	cmd.Flags().StringSliceVar(&keys, "key", nil, "primary key field per resource (resource=field)")

	return cmd
}
