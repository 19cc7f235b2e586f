package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guiaurbana/geocore/internal/enrich"
	"github.com/guiaurbana/geocore/internal/model"
	"github.com/guiaurbana/geocore/pkg/nominatim"
)

var enrichDryRun bool

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Geocode guide places and compute walking distances",
	Long:  "Reads every place from the store, geocodes each one against the configured provider at the mandated pacing, computes campus walking distance and ETA labels, and writes the results back.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		places, err := st.ListPlaces(ctx)
		if err != nil {
			return err
		}
		if len(places) == 0 {
			zap.L().Info("no places to enrich")
			return nil
		}

		geocoder := nominatim.NewClient(
			nominatim.WithBaseURL(cfg.Geocoder.BaseURL),
			nominatim.WithUserAgent(cfg.Geocoder.UserAgent),
		)
		pipeline := enrich.New(geocoder, cfg.Pipeline.Locality, cfg.Pipeline.Region,
			enrich.WithMinInterval(cfg.Pipeline.MinInterval))

		fallback := model.Coordinate{Lat: cfg.Pipeline.FallbackLat, Lng: cfg.Pipeline.FallbackLng}
		enriched, summary, runErr := pipeline.Enrich(ctx, places, cfg.Pipeline.ReferenceAddress, fallback)

		// A cancelled run still persists the prefix that completed, so the
		// write uses a context that outlives the signal.
		if !enrichDryRun && len(enriched) > 0 {
			saveCtx := context.WithoutCancel(ctx)
			if err := st.SaveEnrichment(saveCtx, enriched); err != nil {
				return err
			}
			if _, err := st.RecordRun(saveCtx, summary); err != nil {
				return err
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return eris.Wrap(err, "encode summary")
		}
		return runErr
	},
}

func init() {
	enrichCmd.Flags().BoolVar(&enrichDryRun, "dry-run", false, "geocode without writing results back")
	rootCmd.AddCommand(enrichCmd)
}
