package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guiaurbana/geocore/internal/kml"
	"github.com/guiaurbana/geocore/internal/maplayer"
	"github.com/guiaurbana/geocore/internal/model"
	"github.com/guiaurbana/geocore/internal/poi"
	"github.com/guiaurbana/geocore/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve map data for the guide's rendering surfaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(st),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

var errNotFound = eris.New("not found")

// newRouter builds the map-data API. Handlers only read; all writes happen
// through the enrich and routes commands.
func newRouter(st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/map/pois", func(w http.ResponseWriter, req *http.Request) {
		pois, err := loadPOIs(req.Context(), st)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, maplayer.BuildView(pois, nil))
	})

	r.Get("/api/map/lines", func(w http.ResponseWriter, req *http.Request) {
		lines, err := st.ListLines(req.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, lines)
	})

	r.Get("/api/map/lines/{slug}", func(w http.ResponseWriter, req *http.Request) {
		overlay, err := loadOverlay(req.Context(), st, chi.URLParam(req, "slug"))
		if err != nil {
			writeError(w, err)
			return
		}
		pois, err := loadPOIs(req.Context(), st)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, maplayer.BuildView(pois, overlay))
	})

	return r
}

// loadPOIs aggregates every configured source into one POI collection.
func loadPOIs(ctx context.Context, st store.Store) ([]model.PointOfInterest, error) {
	sources := make([]poi.Source, 0, 2)
	for _, category := range []model.Category{model.CategoryUniversity, model.CategoryHealth} {
		records, err := st.ListPOISource(ctx, category)
		if err != nil {
			return nil, err
		}
		sources = append(sources, poi.Source{Category: category, Records: records})
	}
	return poi.Aggregate(sources), nil
}

// loadOverlay resolves one line's stored geometry into a route overlay.
func loadOverlay(ctx context.Context, st store.Store, slug string) (*maplayer.RouteOverlay, error) {
	lines, err := st.ListLines(ctx)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		if lines[i].Slug != slug {
			continue
		}
		wkb, err := st.GetLineGeometry(ctx, slug)
		if err != nil {
			return nil, errNotFound
		}
		segments, err := kml.DecodeWKB(wkb)
		if err != nil {
			return nil, err
		}
		return &maplayer.RouteOverlay{Line: lines[i].Name, Color: lines[i].Color, Segments: segments}, nil
	}
	return nil, errNotFound
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, err error) {
	if eris.Is(err, errNotFound) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	zap.L().Error("request failed", zap.Error(err))
	http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
