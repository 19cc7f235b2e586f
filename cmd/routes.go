package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guiaurbana/geocore/internal/kml"
	"github.com/guiaurbana/geocore/internal/routes"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Manage transit-line route geometry",
}

var routesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Fetch and parse every registered line without writing anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		lines, err := routes.LoadRegistry(cfg.Routes.LinesFile)
		if err != nil {
			return err
		}

		result, err := newLoader().LoadAll(ctx, lines)
		if err != nil {
			return err
		}

		for _, lg := range result.Loaded {
			points := 0
			for _, pl := range lg.Polylines {
				points += len(pl.Points)
			}
			fmt.Printf("%-20s ok   %d segments, %d points\n", lg.Line.Slug, len(lg.Polylines), points)
		}
		for slug, loadErr := range result.Failed {
			fmt.Printf("%-20s FAIL %v\n", slug, loadErr)
		}
		if len(result.Failed) > 0 {
			return fmt.Errorf("%d of %d lines failed", len(result.Failed), len(lines))
		}
		return nil
	},
}

var routesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Load route geometry for every registered line into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		lines, err := routes.LoadRegistry(cfg.Routes.LinesFile)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		for _, line := range lines {
			if err := st.UpsertLine(ctx, line); err != nil {
				return err
			}
		}

		result, err := newLoader().LoadAll(ctx, lines)
		if err != nil {
			return err
		}

		for _, lg := range result.Loaded {
			wkb, err := kml.EncodeWKB(lg.Polylines)
			if err != nil {
				zap.L().Error("encode geometry", zap.String("line", lg.Line.Slug), zap.Error(err))
				continue
			}
			if err := st.SaveLineGeometry(ctx, lg.Line.Slug, wkb); err != nil {
				return err
			}
			zap.L().Info("line geometry saved",
				zap.String("line", lg.Line.Slug),
				zap.Int("segments", len(lg.Polylines)),
			)
		}
		for slug, loadErr := range result.Failed {
			zap.L().Warn("line skipped", zap.String("line", slug), zap.Error(loadErr))
		}
		return nil
	},
}

func newLoader() *routes.Loader {
	return routes.NewLoader(routes.LoaderOptions{
		Timeout:     30 * time.Second,
		MaxRetries:  3,
		Concurrency: 4,
		UserAgent:   cfg.Geocoder.UserAgent,
	})
}

func init() {
	routesCmd.AddCommand(routesValidateCmd)
	routesCmd.AddCommand(routesSyncCmd)
	rootCmd.AddCommand(routesCmd)
}
