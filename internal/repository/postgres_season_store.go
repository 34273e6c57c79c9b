package repository

import (
	"context"
	"fmt"

	"PlayerCast/internal/domain/models"
	domrepo "PlayerCast/internal/domain/repository"
	applogger "PlayerCast/pkg/logger"

	"github.com/jackc/pgx/v5"
)

// pgQuerier is satisfied by *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PGSeasonStore implements SeasonStore backed by Postgres.
type PGSeasonStore struct {
	db    pgQuerier
	table string
	l     *applogger.Logger
}

var _ domrepo.SeasonStore = (*PGSeasonStore)(nil)

func NewPGSeasonStore(db pgQuerier, table string, l *applogger.Logger) *PGSeasonStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &PGSeasonStore{db: db, table: pgx.Identifier{table}.Sanitize(), l: l}
}

func (s *PGSeasonStore) GetPlayerHistory(ctx context.Context, playerID string) ([]models.SeasonRecord, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE player_id = $1 ORDER BY year`, seasonColumns, s.table)
	rows, err := s.db.Query(ctx, q, playerID)
	if err != nil {
		s.l.Error("postgres player_history query error",
			applogger.String("player_id", playerID),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("get player history: %w", err)
	}
	defer rows.Close()

	var out []models.SeasonRecord
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
	return out, nil
}

func (s *PGSeasonStore) ListPlayers(ctx context.Context, championship string, year int) ([]string, error) {
	q := fmt.Sprintf(`
		SELECT DISTINCT player_id FROM %s
		WHERE ($1 = '' OR championship = $1) AND ($2 = 0 OR year = $2)
		ORDER BY player_id`, s.table)
	rows, err := s.db.Query(ctx, q, championship, year)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect player ids: %w", err)
	}
	return ids, nil
}

// UpsertSeasons writes records keyed by (player_id, year) in one batch.
func (s *PGSeasonStore) UpsertSeasons(ctx context.Context, records []models.SeasonRecord) error {
	if len(records) == 0 {
		return nil
	}
	q := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (player_id, year) DO UPDATE SET
			age = EXCLUDED.age, role = EXCLUDED.role, squad = EXCLUDED.squad,
			championship = EXCLUDED.championship, games_played = EXCLUDED.games_played,
			goals = EXCLUDED.goals, assists = EXCLUDED.assists,
			minute_played = EXCLUDED.minute_played, value_player = EXCLUDED.value_player,
			goals_conceded = EXCLUDED.goals_conceded, clean_sheets = EXCLUDED.clean_sheets`,
		s.table, seasonColumns)
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(q,
			r.PlayerID, r.Year, r.Age, string(r.Role), r.Squad, r.Championship,
			r.GamesPlayed.Ptr(), r.Goals.Ptr(), r.Assists.Ptr(), r.MinutePlayed.Ptr(), r.ValuePlayer.Ptr(),
			r.GoalsConceded.Ptr(), r.CleanSheets.Ptr(),
		)
	}
	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for _, r := range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert %s/%d: %w", r.PlayerID, r.Year, err)
		}
	}
	s.l.Info("postgres seasons upserted", applogger.Int("rows", len(records)))
	return nil
}
