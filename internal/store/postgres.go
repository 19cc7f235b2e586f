package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/guiaurbana/geocore/internal/db"
	"github.com/guiaurbana/geocore/internal/model"
	"github.com/guiaurbana/geocore/internal/poi"
	"github.com/guiaurbana/geocore/internal/routes"
)

// PostgresStore implements Store using a pgx connection pool. Used when the
// guide shares its relational store with the page-rendering app.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Tests inject a mock here.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS places (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	street     TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT '',
	rating     INTEGER NOT NULL DEFAULT 0,
	lat        DOUBLE PRECISION,
	lng        DOUBLE PRECISION,
	distance_m INTEGER,
	eta_label  TEXT NOT NULL DEFAULT 'A calcular',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS university_sites (
	id     TEXT PRIMARY KEY,
	name   TEXT NOT NULL,
	street TEXT NOT NULL DEFAULT '',
	phone  TEXT NOT NULL DEFAULT '',
	email  TEXT NOT NULL DEFAULT '',
	lat    TEXT NOT NULL DEFAULT '0',
	lng    TEXT NOT NULL DEFAULT '0'
);

CREATE TABLE IF NOT EXISTS health_services (
	id     TEXT PRIMARY KEY,
	name   TEXT NOT NULL,
	street TEXT NOT NULL DEFAULT '',
	phone  TEXT NOT NULL DEFAULT '',
	email  TEXT NOT NULL DEFAULT '',
	lat    TEXT NOT NULL DEFAULT '0',
	lng    TEXT NOT NULL DEFAULT '0'
);

CREATE TABLE IF NOT EXISTS transit_lines (
	slug     TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	color    TEXT NOT NULL DEFAULT '',
	schedule TEXT NOT NULL DEFAULT '',
	kml_url  TEXT NOT NULL,
	geom     BYTEA
);

CREATE TABLE IF NOT EXISTS enrichment_runs (
	id         TEXT PRIMARY KEY,
	summary    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_places_name ON places(name);
CREATE INDEX IF NOT EXISTS idx_enrichment_runs_created_at ON enrichment_runs(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ListPlaces(ctx context.Context) ([]model.PlaceRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, street, category, rating FROM places ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list places")
	}
	defer rows.Close()

	var places []model.PlaceRecord
	for rows.Next() {
		var p model.PlaceRecord
		if err := rows.Scan(&p.ID, &p.Name, &p.Street, &p.Category, &p.Rating); err != nil {
			return nil, eris.Wrap(err, "postgres: scan place")
		}
		places = append(places, p)
	}
	return places, eris.Wrap(rows.Err(), "postgres: list places iterate")
}

func (s *PostgresStore) SaveEnrichment(ctx context.Context, places []model.EnrichedPlace) error {
	for _, p := range places {
		var lat, lng any
		var dist any
		if p.Coordinate != nil {
			lat, lng = p.Coordinate.Lat, p.Coordinate.Lng
		}
		if p.DistanceMeters != nil {
			dist = *p.DistanceMeters
		}
		_, err := s.pool.Exec(ctx,
			`UPDATE places SET lat = $1, lng = $2, distance_m = $3, eta_label = $4, updated_at = $5 WHERE id = $6`,
			lat, lng, dist, p.ETALabel, time.Now().UTC(), p.ID,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: update place %d", p.ID)
		}
	}
	return nil
}

func (s *PostgresStore) ListPOISource(ctx context.Context, category model.Category) ([]poi.SourceRecord, error) {
	table, ok := poiSourceTables[category]
	if !ok {
		return nil, eris.Errorf("store: no POI source for category %q", category)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, street, phone, email, lat, lng FROM `+table+` ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list %s", table)
	}
	defer rows.Close()

	var records []poi.SourceRecord
	for rows.Next() {
		var r poi.SourceRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Street, &r.Phone, &r.Email, &r.Lat, &r.Lng); err != nil {
			return nil, eris.Wrapf(err, "postgres: scan %s row", table)
		}
		records = append(records, r)
	}
	return records, eris.Wrapf(rows.Err(), "postgres: iterate %s", table)
}

func (s *PostgresStore) ListLines(ctx context.Context) ([]routes.Line, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT slug, name, color, schedule, kml_url FROM transit_lines ORDER BY slug`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list lines")
	}
	defer rows.Close()

	var lines []routes.Line
	for rows.Next() {
		var l routes.Line
		if err := rows.Scan(&l.Slug, &l.Name, &l.Color, &l.Schedule, &l.KMLURL); err != nil {
			return nil, eris.Wrap(err, "postgres: scan line")
		}
		lines = append(lines, l)
	}
	return lines, eris.Wrap(rows.Err(), "postgres: list lines iterate")
}

func (s *PostgresStore) UpsertLine(ctx context.Context, line routes.Line) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transit_lines (slug, name, color, schedule, kml_url) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, color = EXCLUDED.color,
		 schedule = EXCLUDED.schedule, kml_url = EXCLUDED.kml_url`,
		line.Slug, line.Name, line.Color, line.Schedule, line.KMLURL,
	)
	return eris.Wrapf(err, "postgres: upsert line %s", line.Slug)
}

func (s *PostgresStore) SaveLineGeometry(ctx context.Context, slug string, wkb []byte) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE transit_lines SET geom = $1 WHERE slug = $2`, wkb, slug,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save geometry for %s", slug)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("line not found: %s", slug)
	}
	return nil
}

func (s *PostgresStore) GetLineGeometry(ctx context.Context, slug string) ([]byte, error) {
	var wkb []byte
	err := s.pool.QueryRow(ctx,
		`SELECT geom FROM transit_lines WHERE slug = $1`, slug,
	).Scan(&wkb)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("line not found: %s", slug)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get geometry for %s", slug)
	}
	return wkb, nil
}

func (s *PostgresStore) RecordRun(ctx context.Context, summary model.RunSummary) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal summary")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO enrichment_runs (id, summary, created_at) VALUES ($1, $2, $3)`,
		id, summaryJSON, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return &model.Run{ID: id, Summary: summary, CreatedAt: now}, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, summary, created_at FROM enrichment_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var summaryJSON []byte
		if err := rows.Scan(&r.ID, &summaryJSON, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := json.Unmarshal(summaryJSON, &r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}
