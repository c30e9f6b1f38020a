package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/localboard/sketchrelay/internal/state"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLGateway stores strokes in one table of a SQLite or Postgres database.
// Points are kept as a JSON array.
type SQLGateway struct {
	conn   *sql.DB
	driver string
}

// OpenSQL opens (creating if needed) the stroke table behind dsn. For
// SQLite, dsn is a file path.
func OpenSQL(driver, dsn string) (*SQLGateway, error) {
	switch driver {
	case DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one writer avoids SQLITE_BUSY
		conn.SetMaxOpenConns(1)
	}

	g := &SQLGateway{conn: conn, driver: driver}
	if err := g.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return g, nil
}

func (g *SQLGateway) Close() error {
	return g.conn.Close()
}

func (g *SQLGateway) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS strokes (
			id TEXT PRIMARY KEY,
			points TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT 'black',
			line_width INTEGER NOT NULL DEFAULT 2,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_strokes_created ON strokes(created_at)`,
	}
	for _, m := range migrations {
		if _, err := g.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $n for Postgres.
func (g *SQLGateway) rebind(query string) string {
	if g.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (g *SQLGateway) Save(ctx context.Context, s state.Stroke) error {
	points, err := json.Marshal(s.Points)
	if err != nil {
		return fmt.Errorf("encode points: %w", err)
	}
	_, err = g.conn.ExecContext(ctx,
		g.rebind(`INSERT INTO strokes (id, points, color, line_width, created_at) VALUES (?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`),
		s.ID, string(points), s.Color, s.Width, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("%w: save stroke %s: %v", ErrUnavailable, s.ID, err)
	}
	glog.V(2).Infof("[store] saved %s\n", s.ID)
	return nil
}

func (g *SQLGateway) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `DELETE FROM strokes WHERE id IN (?` + strings.Repeat(`, ?`, len(ids)-1) + `)`
	if _, err := g.conn.ExecContext(ctx, g.rebind(query), args...); err != nil {
		return fmt.Errorf("%w: delete strokes: %v", ErrUnavailable, err)
	}
	glog.V(2).Infof("[store] deleted %d\n", len(ids))
	return nil
}

func (g *SQLGateway) FetchAll(ctx context.Context) ([]state.Stroke, error) {
	rows, err := g.conn.QueryContext(ctx,
		`SELECT id, points, color, line_width FROM strokes ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch strokes: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var strokes []state.Stroke
	for rows.Next() {
		var (
			s      state.Stroke
			points string
		)
		if err := rows.Scan(&s.ID, &points, &s.Color, &s.Width); err != nil {
			return nil, fmt.Errorf("%w: scan stroke: %v", ErrUnavailable, err)
		}
		if err := json.Unmarshal([]byte(points), &s.Points); err != nil {
			glog.Warningf("[store] skipping stroke %s with unreadable points: %v\n", s.ID, err)
			continue
		}
		strokes = append(strokes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return strokes, nil
}
