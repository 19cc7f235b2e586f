package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guiaurbana/geocore/internal/routes"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema and seed the transit-line registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return err
		}
		zap.L().Info("schema migrated", zap.String("driver", cfg.Store.Driver))

		lines, err := routes.LoadRegistry(cfg.Routes.LinesFile)
		if err != nil {
			// Seeding is best-effort; a missing registry file is not a
			// migration failure.
			zap.L().Warn("registry not seeded", zap.Error(err))
			return nil
		}
		for _, line := range lines {
			if err := st.UpsertLine(ctx, line); err != nil {
				return err
			}
		}
		zap.L().Info("registry seeded", zap.Int("lines", len(lines)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
