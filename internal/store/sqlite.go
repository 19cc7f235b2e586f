package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/guiaurbana/geocore/internal/model"
	"github.com/guiaurbana/geocore/internal/poi"
	"github.com/guiaurbana/geocore/internal/routes"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS places (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	street     TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT '',
	rating     INTEGER NOT NULL DEFAULT 0,
	lat        REAL,
	lng        REAL,
	distance_m INTEGER,
	eta_label  TEXT NOT NULL DEFAULT 'A calcular',
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
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
	geom     BLOB
);

CREATE TABLE IF NOT EXISTS enrichment_runs (
	id         TEXT PRIMARY KEY,
	summary    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_places_name ON places(name);
CREATE INDEX IF NOT EXISTS idx_enrichment_runs_created_at ON enrichment_runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListPlaces(ctx context.Context) ([]model.PlaceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, street, category, rating FROM places ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list places")
	}
	defer rows.Close()

	var places []model.PlaceRecord
	for rows.Next() {
		var p model.PlaceRecord
		if err := rows.Scan(&p.ID, &p.Name, &p.Street, &p.Category, &p.Rating); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan place")
		}
		places = append(places, p)
	}
	return places, eris.Wrap(rows.Err(), "sqlite: list places iterate")
}

// SaveEnrichment overwrites each place's enrichment columns. Re-running on
// an already-enriched row replaces distance and ETA, never accumulates.
func (s *SQLiteStore) SaveEnrichment(ctx context.Context, places []model.EnrichedPlace) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin enrichment tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE places SET lat = ?, lng = ?, distance_m = ?, eta_label = ?, updated_at = ? WHERE id = ?`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare enrichment update")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for _, p := range places {
		var lat, lng any
		var dist any
		if p.Coordinate != nil {
			lat, lng = p.Coordinate.Lat, p.Coordinate.Lng
		}
		if p.DistanceMeters != nil {
			dist = *p.DistanceMeters
		}
		if _, err := stmt.ExecContext(ctx, lat, lng, dist, p.ETALabel, now, p.ID); err != nil {
			return eris.Wrapf(err, "sqlite: update place %d", p.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit enrichment")
}

func (s *SQLiteStore) ListPOISource(ctx context.Context, category model.Category) ([]poi.SourceRecord, error) {
	table, ok := poiSourceTables[category]
	if !ok {
		return nil, eris.Errorf("store: no POI source for category %q", category)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, street, phone, email, lat, lng FROM `+table+` ORDER BY rowid`,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list %s", table)
	}
	defer rows.Close()

	var records []poi.SourceRecord
	for rows.Next() {
		var r poi.SourceRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Street, &r.Phone, &r.Email, &r.Lat, &r.Lng); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan %s row", table)
		}
		records = append(records, r)
	}
	return records, eris.Wrapf(rows.Err(), "sqlite: iterate %s", table)
}

func (s *SQLiteStore) ListLines(ctx context.Context) ([]routes.Line, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slug, name, color, schedule, kml_url FROM transit_lines ORDER BY slug`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list lines")
	}
	defer rows.Close()

	var lines []routes.Line
	for rows.Next() {
		var l routes.Line
		if err := rows.Scan(&l.Slug, &l.Name, &l.Color, &l.Schedule, &l.KMLURL); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan line")
		}
		lines = append(lines, l)
	}
	return lines, eris.Wrap(rows.Err(), "sqlite: list lines iterate")
}

func (s *SQLiteStore) UpsertLine(ctx context.Context, line routes.Line) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transit_lines (slug, name, color, schedule, kml_url) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET name = excluded.name, color = excluded.color,
		 schedule = excluded.schedule, kml_url = excluded.kml_url`,
		line.Slug, line.Name, line.Color, line.Schedule, line.KMLURL,
	)
	return eris.Wrapf(err, "sqlite: upsert line %s", line.Slug)
}

func (s *SQLiteStore) SaveLineGeometry(ctx context.Context, slug string, wkb []byte) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transit_lines SET geom = ? WHERE slug = ?`, wkb, slug,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save geometry for %s", slug)
	}
	return checkRowsAffected(res, "line", slug)
}

func (s *SQLiteStore) GetLineGeometry(ctx context.Context, slug string) ([]byte, error) {
	var wkb []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT geom FROM transit_lines WHERE slug = ?`, slug,
	).Scan(&wkb)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("line not found: %s", slug)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get geometry for %s", slug)
	}
	return wkb, nil
}

func (s *SQLiteStore) RecordRun(ctx context.Context, summary model.RunSummary) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal summary")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO enrichment_runs (id, summary, created_at) VALUES (?, ?, ?)`,
		id, string(summaryJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{ID: id, Summary: summary, CreatedAt: now}, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, summary, created_at FROM enrichment_runs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var summaryJSON string
		if err := rows.Scan(&r.ID, &summaryJSON, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if err := json.Unmarshal([]byte(summaryJSON), &r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
