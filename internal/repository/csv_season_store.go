package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"PlayerCast/internal/domain/models"
	domrepo "PlayerCast/internal/domain/repository"
	"PlayerCast/internal/services/features"
)

// csvHeaderAliases maps accepted header names onto canonical columns.
var csvHeaderAliases = map[string]string{
	"player_id":      "player_id",
	"name":           "player_id",
	"nameplayer":     "player_id",
	"year":           "year",
	"age":            "age",
	"role":           "role",
	"squad":          "squad",
	"squad_name":     "squad",
	"nameteam":       "squad",
	"championship":   "championship",
	"nameleague":     "championship",
	"games_played":   "games_played",
	"games":          "games_played",
	"goals":          "goals",
	"assists":        "assists",
	"minute_played":  "minute_played",
	"minutes":        "minute_played",
	"value_player":   "value_player",
	"valueplayer":    "value_player",
	"goals_conceded": "goals_conceded",
	"goalsconceded":  "goals_conceded",
	"clean_sheets":   "clean_sheets",
	"cleansheets":    "clean_sheets",
}

// CSVSeasonStore serves season records read once from a players.csv file.
type CSVSeasonStore struct {
	byPlayer map[string][]models.SeasonRecord
}

var _ domrepo.SeasonStore = (*CSVSeasonStore)(nil)

// OpenCSVSeasonStore loads the file at path.
func OpenCSVSeasonStore(path string) (*CSVSeasonStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open season csv: %w", err)
	}
	defer f.Close()
	return NewCSVSeasonStore(f)
}

// NewCSVSeasonStore parses a header-first CSV. Empty cells and -1 are unobserved.
func NewCSVSeasonStore(r io.Reader) (*CSVSeasonStore, error) {
	records, err := ReadSeasonsCSV(r)
	if err != nil {
		return nil, err
	}
	s := &CSVSeasonStore{byPlayer: make(map[string][]models.SeasonRecord)}
	for _, rec := range records {
		s.byPlayer[rec.PlayerID] = append(s.byPlayer[rec.PlayerID], rec)
	}
	return s, nil
}

// ReadSeasonsCSV parses every row of a season CSV.
func ReadSeasonsCSV(r io.Reader) ([]models.SeasonRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("season csv: empty file")
		}
		return nil, fmt.Errorf("season csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if canon, ok := csvHeaderAliases[key]; ok {
			if _, dup := cols[canon]; !dup {
				cols[canon] = i
			}
		}
	}
	for _, req := range []string{"player_id", "year"} {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("season csv: missing %s column", req)
		}
	}

	var out []models.SeasonRecord
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("season csv line %d: %w", line, err)
		}
		rec, err := parseSeasonRow(cols, row)
		if err != nil {
			return nil, fmt.Errorf("season csv line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseSeasonRow(cols map[string]int, row []string) (models.SeasonRecord, error) {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	stat := func(name string) (models.Stat, error) {
		v := cell(name)
		if v == "" {
			return models.Unobserved(), nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return models.Stat{}, fmt.Errorf("%s: %w", name, err)
		}
		return models.FromRaw(f), nil
	}

	rec := models.SeasonRecord{
		PlayerID:     cell("player_id"),
		Role:         features.NormalizeRole(cell("role")),
		Squad:        cell("squad"),
		Championship: cell("championship"),
	}
	var err error
	if rec.Year, err = strconv.Atoi(cell("year")); err != nil {
		return rec, fmt.Errorf("year: %w", err)
	}
	if v := cell("age"); v != "" {
		if rec.Age, err = strconv.Atoi(v); err != nil {
			return rec, fmt.Errorf("age: %w", err)
		}
	}

	targets := []struct {
		col string
		dst *models.Stat
	}{
		{"games_played", &rec.GamesPlayed},
		{"goals", &rec.Goals},
		{"assists", &rec.Assists},
		{"minute_played", &rec.MinutePlayed},
		{"value_player", &rec.ValuePlayer},
		{"goals_conceded", &rec.GoalsConceded},
		{"clean_sheets", &rec.CleanSheets},
	}
	for _, t := range targets {
		if *t.dst, err = stat(t.col); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

func (s *CSVSeasonStore) GetPlayerHistory(_ context.Context, playerID string) ([]models.SeasonRecord, error) {
	recs, ok := s.byPlayer[playerID]
	if !ok {
		return nil, fmt.Errorf("player %q: %w", playerID, models.ErrPlayerNotFound)
	}
	return append([]models.SeasonRecord(nil), recs...), nil
}

func (s *CSVSeasonStore) ListPlayers(_ context.Context, championship string, year int) ([]string, error) {
	var ids []string
	for id, recs := range s.byPlayer {
		for _, r := range recs {
			if (championship == "" || r.Championship == championship) && (year == 0 || r.Year == year) {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}
