package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"PlayerCast/internal/domain/models"
	domrepo "PlayerCast/internal/domain/repository"
	pkgch "PlayerCast/pkg/clickhouse"
	applogger "PlayerCast/pkg/logger"
)

// CHSeasonStore implements SeasonStore backed by ClickHouse.
type CHSeasonStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.SeasonStore = (*CHSeasonStore)(nil)

func NewCHSeasonStore(ch *pkgch.Client, table string, l *applogger.Logger) *CHSeasonStore {
	return newCHSeasonStore(ch.DB(), table, l)
}

func newCHSeasonStore(db *sql.DB, table string, l *applogger.Logger) *CHSeasonStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHSeasonStore{db: db, table: table, l: l}
}

func (s *CHSeasonStore) GetPlayerHistory(ctx context.Context, playerID string) ([]models.SeasonRecord, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s
        WHERE player_id = ?
        ORDER BY year ASC
    `, seasonColumns, s.table)
	rows, err := s.db.QueryContext(ctx, q, playerID)
	if err != nil {
		s.l.Error("clickhouse player_history query error",
			applogger.String("table", s.table),
			applogger.String("player_id", playerID),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("get player history: %w", err)
	}
	defer rows.Close()

	out := make([]models.SeasonRecord, 0, 16)
	for rows.Next() {
		var r seasonRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		out = append(out, r.record())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("player %q: %w", playerID, models.ErrPlayerNotFound)
	}
	s.l.Debug("clickhouse player_history ok",
		applogger.String("player_id", playerID),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHSeasonStore) ListPlayers(ctx context.Context, championship string, year int) ([]string, error) {
	q := fmt.Sprintf(`
        SELECT DISTINCT player_id
        FROM %s
        WHERE (? = '' OR championship = ?) AND (? = 0 OR year = ?)
        ORDER BY player_id
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, championship, championship, year, year)
	if err != nil {
		s.l.Error("clickhouse list_players query error",
			applogger.String("championship", championship),
			applogger.Int("year", year),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan player id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
