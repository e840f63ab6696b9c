package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"tunesport/internal/library"
	"tunesport/pkg/models"
)

// ErrNoExports is returned by LatestExport on an empty database.
var ErrNoExports = errors.New("no exports stored")

// Database stores snapshots of parsed libraries. Every SaveLibrary call
// adds a new export; older exports stay queryable until pruned. It is safe
// for concurrent use because the underlying *sql.DB is concurrency-safe.
type Database struct {
	conn   *sql.DB
	logger *logrus.Logger

	insertTrackStmt      *sql.Stmt
	insertPlaylistStmt   *sql.Stmt
	insertMembershipStmt *sql.Stmt
}

// NewDatabase opens (or creates) a SQLite database at the provided path and
// ensures all required tables and indices exist. Caller should Close() it
// when finished.
func NewDatabase(dbPath string, logger *logrus.Logger) (*Database, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?mode=rwc&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(15 * time.Minute)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=2000;",
		"PRAGMA temp_store=memory;",
		"PRAGMA foreign_keys=ON;",
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Failed to set pragma")
		}
	}

	db := &Database{
		conn:   conn,
		logger: logger,
	}

	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := db.prepareStatements(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	logger.WithField("db_path", dbPath).Debug("Database initialized")
	return db, nil
}

// createTables creates tables and indices if they do not already exist, then
// executes any migrations. This is idempotent and safe to call multiple times.
func (db *Database) createTables() error {
	exportsTable := `
	CREATE TABLE IF NOT EXISTS exports (
		id TEXT PRIMARY KEY,
		library_persistent_id TEXT,
		source_path TEXT NOT NULL,
		application_version TEXT,
		track_count INTEGER NOT NULL,
		playlist_count INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);`

	tracksTable := `
	CREATE TABLE IF NOT EXISTS tracks (
		export_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		persistent_id TEXT,
		name TEXT,
		artist TEXT,
		album_artist TEXT,
		album TEXT,
		genre TEXT,
		year INTEGER DEFAULT 0,
		disc_number INTEGER DEFAULT 0,
		track_number INTEGER DEFAULT 0,
		duration INTEGER DEFAULT 0,
		file_size INTEGER DEFAULT 0,
		rating INTEGER DEFAULT 0,
		play_count INTEGER DEFAULT 0,
		location TEXT,
		date_added DATETIME,
		position INTEGER NOT NULL,
		PRIMARY KEY (export_id, id),
		FOREIGN KEY (export_id) REFERENCES exports(id) ON DELETE CASCADE
	);`

	playlistsTable := `
	CREATE TABLE IF NOT EXISTS playlists (
		export_id TEXT NOT NULL,
		persistent_id TEXT NOT NULL,
		parent_persistent_id TEXT,
		name TEXT NOT NULL,
		path TEXT NOT NULL,
		depth INTEGER NOT NULL,
		folder BOOLEAN DEFAULT FALSE,
		track_count INTEGER DEFAULT 0,
		position INTEGER NOT NULL,
		PRIMARY KEY (export_id, persistent_id),
		FOREIGN KEY (export_id) REFERENCES exports(id) ON DELETE CASCADE
	);`

	// a track may appear several times in one playlist, so position is part of the key
	playlistTracksTable := `
	CREATE TABLE IF NOT EXISTS playlist_tracks (
		export_id TEXT NOT NULL,
		playlist_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		track_id INTEGER NOT NULL,
		PRIMARY KEY (export_id, playlist_id, position),
		FOREIGN KEY (export_id, playlist_id) REFERENCES playlists(export_id, persistent_id) ON DELETE CASCADE,
		FOREIGN KEY (export_id, track_id) REFERENCES tracks(export_id, id) ON DELETE CASCADE
	);`

	indices := []string{
		"CREATE INDEX IF NOT EXISTS idx_exports_created ON exports(created_at);",
		"CREATE INDEX IF NOT EXISTS idx_tracks_position ON tracks(export_id, position);",
		"CREATE INDEX IF NOT EXISTS idx_tracks_search ON tracks(name, artist, album);",
		"CREATE INDEX IF NOT EXISTS idx_playlists_position ON playlists(export_id, position);",
		"CREATE INDEX IF NOT EXISTS idx_playlist_tracks_track ON playlist_tracks(export_id, track_id);",
	}

	tables := []string{exportsTable, tracksTable, playlistsTable, playlistTracksTable}
	for _, table := range tables {
		if _, err := db.conn.Exec(table); err != nil {
			return err
		}
	}

	for _, index := range indices {
		if _, err := db.conn.Exec(index); err != nil {
			return err
		}
	}

	return db.runMigrations()
}

// runMigrations performs incremental schema updates in-place. Each migration
// should be idempotent and safe to re-run; keep them lightweight.
func (db *Database) runMigrations() error {
	// Migration 1: diagnostics count on exports
	var columnExists bool
	err := db.conn.QueryRow(`
		SELECT COUNT(*) > 0
		FROM pragma_table_info('exports')
		WHERE name = 'diagnostics'`).Scan(&columnExists)
	if err != nil {
		return err
	}

	if !columnExists {
		if _, err := db.conn.Exec("ALTER TABLE exports ADD COLUMN diagnostics INTEGER DEFAULT 0"); err != nil {
			return err
		}
		db.logger.Debug("Added diagnostics column to exports table")
	}

	return nil
}

func (db *Database) prepareStatements() error {
	var err error

	db.insertTrackStmt, err = db.conn.Prepare(`
		INSERT INTO tracks (export_id, id, persistent_id, name, artist, album_artist, album, genre, year,
			disc_number, track_number, duration, file_size, rating, play_count, location, date_added, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert track statement: %w", err)
	}

	db.insertPlaylistStmt, err = db.conn.Prepare(`
		INSERT INTO playlists (export_id, persistent_id, parent_persistent_id, name, path, depth, folder, track_count, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert playlist statement: %w", err)
	}

	db.insertMembershipStmt, err = db.conn.Prepare(`
		INSERT INTO playlist_tracks (export_id, playlist_id, position, track_id)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert membership statement: %w", err)
	}

	return nil
}

// SaveLibrary stores res as a new export in one transaction and returns
// the export id.
func (db *Database) SaveLibrary(ctx context.Context, res *library.Result, sourcePath string) (string, error) {
	lib := res.Library
	tracks := lib.Tracks()
	playlists := lib.Playlists()

	record := models.ExportRecord{
		ID:            uuid.New().String(),
		SourcePath:    sourcePath,
		TrackCount:    len(tracks),
		PlaylistCount: len(playlists),
		Diagnostics:   len(res.Diagnostics),
		CreatedAt:     time.Now().UTC(),
	}
	if lib.PersistentID != nil {
		record.LibraryPersistentID = *lib.PersistentID
	}
	if lib.ApplicationVersion != nil {
		record.ApplicationVersion = *lib.ApplicationVersion
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin export: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO exports (id, library_persistent_id, source_path, application_version, track_count, playlist_count, diagnostics, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.LibraryPersistentID, record.SourcePath, record.ApplicationVersion,
		record.TrackCount, record.PlaylistCount, record.Diagnostics, record.CreatedAt); err != nil {
		return "", fmt.Errorf("insert export: %w", err)
	}

	trackStmt := tx.StmtContext(ctx, db.insertTrackStmt)
	for i, t := range tracks {
		r := t.Record()
		if _, err := trackStmt.ExecContext(ctx, record.ID, r.ID, r.PersistentID, r.Name, r.Artist, r.AlbumArtist,
			r.Album, r.Genre, r.Year, r.DiscNumber, r.TrackNumber, r.Duration, r.FileSize, r.Rating,
			r.PlayCount, r.Location, nullTime(r.DateAdded), i); err != nil {
			return "", fmt.Errorf("insert track %d: %w", r.ID, err)
		}
	}

	playlistStmt := tx.StmtContext(ctx, db.insertPlaylistStmt)
	membershipStmt := tx.StmtContext(ctx, db.insertMembershipStmt)
	for i, p := range playlists {
		r := p.Record(i)
		if _, err := playlistStmt.ExecContext(ctx, record.ID, r.PersistentID, nullString(r.ParentPersistentID),
			r.Name, r.Path, r.Depth, r.Folder, r.TrackCount, r.Position); err != nil {
			return "", fmt.Errorf("insert playlist %s: %w", r.PersistentID, err)
		}
		for _, m := range p.Memberships() {
			if _, err := membershipStmt.ExecContext(ctx, record.ID, m.PlaylistID, m.Position, m.TrackID); err != nil {
				return "", fmt.Errorf("insert playlist %s item %d: %w", m.PlaylistID, m.Position, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit export: %w", err)
	}

	db.logger.WithFields(logrus.Fields{
		"export_id": record.ID,
		"tracks":    record.TrackCount,
		"playlists": record.PlaylistCount,
	}).Info("Library snapshot stored")
	return record.ID, nil
}

// GetExports lists stored exports, newest first.
func (db *Database) GetExports(ctx context.Context) ([]models.ExportRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, COALESCE(library_persistent_id, ''), source_path, COALESCE(application_version, ''),
			track_count, playlist_count, COALESCE(diagnostics, 0), created_at
		FROM exports
		ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exports []models.ExportRecord
	for rows.Next() {
		var e models.ExportRecord
		if err := rows.Scan(&e.ID, &e.LibraryPersistentID, &e.SourcePath, &e.ApplicationVersion,
			&e.TrackCount, &e.PlaylistCount, &e.Diagnostics, &e.CreatedAt); err != nil {
			return nil, err
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}

// LatestExport returns the most recent export.
func (db *Database) LatestExport(ctx context.Context) (*models.ExportRecord, error) {
	exports, err := db.GetExports(ctx)
	if err != nil {
		return nil, err
	}
	if len(exports) == 0 {
		return nil, ErrNoExports
	}
	return &exports[0], nil
}

const trackColumns = `t.id, COALESCE(t.persistent_id, ''), COALESCE(t.name, ''), COALESCE(t.artist, ''),
	COALESCE(t.album_artist, ''), COALESCE(t.album, ''), COALESCE(t.genre, ''), t.year, t.disc_number,
	t.track_number, t.duration, t.file_size, t.rating, t.play_count, COALESCE(t.location, ''), t.date_added`

// GetTracks returns the tracks of an export in library order.
func (db *Database) GetTracks(ctx context.Context, exportID string) ([]models.TrackRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+trackColumns+`
		FROM tracks t
		WHERE t.export_id = ?
		ORDER BY t.position`, exportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

// GetPlaylists returns the playlists of an export in library order.
func (db *Database) GetPlaylists(ctx context.Context, exportID string) ([]models.PlaylistRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT persistent_id, COALESCE(parent_persistent_id, ''), name, path, depth, folder, track_count, position
		FROM playlists
		WHERE export_id = ?
		ORDER BY position`, exportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var playlists []models.PlaylistRecord
	for rows.Next() {
		var p models.PlaylistRecord
		if err := rows.Scan(&p.PersistentID, &p.ParentPersistentID, &p.Name, &p.Path, &p.Depth,
			&p.Folder, &p.TrackCount, &p.Position); err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// GetPlaylistTracks returns the items of a playlist ordered by stored
// position. Repeated tracks are returned once per occurrence.
func (db *Database) GetPlaylistTracks(ctx context.Context, exportID, playlistID string) ([]models.TrackRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+trackColumns+`
		FROM playlist_tracks pt
		JOIN tracks t ON t.export_id = pt.export_id AND t.id = pt.track_id
		WHERE pt.export_id = ? AND pt.playlist_id = ?
		ORDER BY pt.position`, exportID, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

// SearchTracks matches name, artist or album of one export.
func (db *Database) SearchTracks(ctx context.Context, exportID, query string) ([]models.TrackRecord, error) {
	pattern := "%" + query + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+trackColumns+`
		FROM tracks t
		WHERE t.export_id = ? AND (t.name LIKE ? OR t.artist LIKE ? OR t.album LIKE ?)
		ORDER BY t.position`, exportID, pattern, pattern, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

// PruneExports deletes all but the newest keep exports and returns how many
// were removed.
func (db *Database) PruneExports(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	result, err := db.conn.ExecContext(ctx, `
		DELETE FROM exports
		WHERE id NOT IN (SELECT id FROM exports ORDER BY created_at DESC, rowid DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, err
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		db.logger.WithField("exports_deleted", removed).Info("Pruned old exports")
	}
	return int(removed), nil
}

// Close closes the underlying database connection and prepared statements.
func (db *Database) Close() error {
	statements := []*sql.Stmt{
		db.insertTrackStmt,
		db.insertPlaylistStmt,
		db.insertMembershipStmt,
	}

	for _, stmt := range statements {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				db.logger.WithError(err).Error("Failed to close prepared statement")
			}
		}
	}

	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// scanTrackRows scans trackColumns result sets. Callers must have already
// deferred rows.Close().
func scanTrackRows(rows *sql.Rows) ([]models.TrackRecord, error) {
	var tracks []models.TrackRecord
	for rows.Next() {
		var t models.TrackRecord
		var dateAdded sql.NullTime
		if err := rows.Scan(&t.ID, &t.PersistentID, &t.Name, &t.Artist, &t.AlbumArtist, &t.Album, &t.Genre,
			&t.Year, &t.DiscNumber, &t.TrackNumber, &t.Duration, &t.FileSize, &t.Rating, &t.PlayCount,
			&t.Location, &dateAdded); err != nil {
			return nil, err
		}
		if dateAdded.Valid {
			t.DateAdded = dateAdded.Time
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
