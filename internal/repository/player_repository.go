package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gojankovic/fpl-insights/internal/database"
	"github.com/gojankovic/fpl-insights/internal/metrics"
	"github.com/gojankovic/fpl-insights/internal/models"
	"github.com/gojankovic/fpl-insights/internal/provider"
)

const sourcePostgres = "postgres"

// PostgresPlayerRepository serves player data from PostgreSQL and implements provider.Provider
type PostgresPlayerRepository struct {
	db database.Querier
}

// NewPostgresPlayerRepository creates a new player repository
func NewPostgresPlayerRepository(db database.Querier) *PostgresPlayerRepository {
	return &PostgresPlayerRepository{db: db}
}

func observe(method string, start time.Time) {
	metrics.RecordProviderRequest(sourcePostgres, method, time.Since(start).Seconds())
}

const playerColumns = `
	SELECT id, web_name, team_id, element_type, status, chance_of_playing,
	       points_per_game, xgi_per_90, xa_per_90, expected_goals, expected_assists,
	       creativity, starts, minutes, selected_by_percent,
	       transfers_in_event, transfers_out_event, price, ep_next
	FROM players`

const (
	selectPlayer  = playerColumns + ` WHERE id = $1`
	selectPlayers = playerColumns + ` ORDER BY id`
)

func scanPlayer(row pgx.Row) (*models.PlayerAttributes, error) {
	p := &models.PlayerAttributes{}
	var elementType int
	err := row.Scan(
		&p.ID, &p.WebName, &p.TeamID, &elementType, &p.Status, &p.ChanceOfPlaying,
		&p.PointsPerGame, &p.XGIPer90, &p.XAPer90, &p.ExpectedGoals, &p.ExpectedAssists,
		&p.Creativity, &p.Starts, &p.Minutes, &p.SelectedByPercent,
		&p.TransfersInEvent, &p.TransfersOutEvent, &p.Price, &p.EPNext,
	)
	if err != nil {
		return nil, err
	}
	pos, err := models.PositionFromElementType(elementType)
	if err != nil {
		return nil, fmt.Errorf("player %d: %w", p.ID, err)
	}
	p.Position = pos
	return p, nil
}

// PlayerAttributes retrieves a player by ID
func (r *PostgresPlayerRepository) PlayerAttributes(ctx context.Context, playerID int) (*models.PlayerAttributes, error) {
	defer observe("player_attributes", time.Now())

	p, err := scanPlayer(r.db.QueryRow(ctx, selectPlayer, playerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.PlayerNotFound(playerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %d: %w", playerID, err)
	}
	return p, nil
}

// Players lists every stored player ordered by ID
func (r *PostgresPlayerRepository) Players(ctx context.Context) ([]models.PlayerAttributes, error) {
	defer observe("players", time.Now())

	rows, err := r.db.Query(ctx, selectPlayers)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var out []models.PlayerAttributes
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return out, nil
}

// historyQuery builds the newest-first history query with optional cutoff and limit
func historyQuery(playerID, maxCount, beforePeriod int) (string, []any) {
	var b strings.Builder
	b.WriteString(`
	SELECT period, points, minutes, goals, assists, clean_sheets, bonus,
	       started, selected, transfers_balance, value
	FROM player_history
	WHERE player_id = $1`)
	args := []any{playerID}

	if beforePeriod > 0 {
		args = append(args, beforePeriod)
		fmt.Fprintf(&b, " AND period < $%d", len(args))
	}
	b.WriteString(" ORDER BY period DESC")
	if maxCount > 0 {
		args = append(args, maxCount)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}

// History returns up to maxCount records before beforePeriod, newest first
func (r *PostgresPlayerRepository) History(ctx context.Context, playerID, maxCount, beforePeriod int) ([]models.GameweekRecord, error) {
	defer observe("history", time.Now())

	query, args := historyQuery(playerID, maxCount, beforePeriod)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for player %d: %w", playerID, err)
	}
	defer rows.Close()

	records := make([]models.GameweekRecord, 0)
	for rows.Next() {
		var rec models.GameweekRecord
		if err := rows.Scan(
			&rec.Period, &rec.Points, &rec.Minutes, &rec.Goals, &rec.Assists, &rec.CleanSheets,
			&rec.Bonus, &rec.Started, &rec.Selected, &rec.TransfersBalance, &rec.Value,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}
	return records, nil
}

const selectDifficulties = `
	SELECT CASE WHEN f.team_h = p.team_id THEN f.team_h_difficulty ELSE f.team_a_difficulty END
	FROM fixtures f
	JOIN players p ON p.id = $1
	WHERE f.period = $2 AND (f.team_h = p.team_id OR f.team_a = p.team_id)
	ORDER BY f.id
`

// FixtureDifficulties returns one rating per fixture the player's team plays in period
func (r *PostgresPlayerRepository) FixtureDifficulties(ctx context.Context, playerID, period int) ([]int, error) {
	defer observe("fixtures", time.Now())

	rows, err := r.db.Query(ctx, selectDifficulties, playerID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to query fixtures for player %d period %d: %w", playerID, period, err)
	}
	defer rows.Close()

	difficulties := make([]int, 0, 2)
	for rows.Next() {
		var d int
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan fixture row: %w", err)
		}
		difficulties = append(difficulties, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fixture rows: %w", err)
	}
	return difficulties, nil
}

const selectActuals = `
	SELECT h.player_id, h.period, h.points, p.element_type
	FROM player_history h
	JOIN players p ON p.id = h.player_id
	WHERE h.period BETWEEN $1 AND $2
	ORDER BY h.player_id, h.period
`

// Actuals returns realized points for every player in [from, to]
func (r *PostgresPlayerRepository) Actuals(ctx context.Context, from, to int) ([]models.ActualOutcome, error) {
	if err := models.ValidatePeriodRange(from, to); err != nil {
		return nil, err
	}
	defer observe("actuals", time.Now())

	rows, err := r.db.Query(ctx, selectActuals, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query actuals %d-%d: %w", from, to, err)
	}
	defer rows.Close()

	out := make([]models.ActualOutcome, 0)
	for rows.Next() {
		var (
			row         models.ActualOutcome
			elementType int
		)
		if err := rows.Scan(&row.PlayerID, &row.Period, &row.Points, &elementType); err != nil {
			return nil, fmt.Errorf("failed to scan actuals row: %w", err)
		}
		if row.Position, err = models.PositionFromElementType(elementType); err != nil {
			return nil, fmt.Errorf("player %d: %w", row.PlayerID, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating actuals rows: %w", err)
	}
	return out, nil
}

// LatestPeriod returns the highest period with recorded history, 0 when empty
func (r *PostgresPlayerRepository) LatestPeriod(ctx context.Context) (int, error) {
	defer observe("latest_period", time.Now())

	var latest int
	if err := r.db.QueryRow(ctx, "SELECT COALESCE(MAX(period), 0) FROM player_history").Scan(&latest); err != nil {
		return 0, fmt.Errorf("failed to get latest period: %w", err)
	}
	return latest, nil
}

const upsertPlayer = `
	INSERT INTO players (id, web_name, team_id, element_type, status, chance_of_playing,
		points_per_game, xgi_per_90, xa_per_90, expected_goals, expected_assists,
		creativity, starts, minutes, selected_by_percent,
		transfers_in_event, transfers_out_event, price, ep_next, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, now())
	ON CONFLICT (id) DO UPDATE SET
		web_name = EXCLUDED.web_name, team_id = EXCLUDED.team_id,
		element_type = EXCLUDED.element_type, status = EXCLUDED.status,
		chance_of_playing = EXCLUDED.chance_of_playing, points_per_game = EXCLUDED.points_per_game,
		xgi_per_90 = EXCLUDED.xgi_per_90, xa_per_90 = EXCLUDED.xa_per_90,
		expected_goals = EXCLUDED.expected_goals, expected_assists = EXCLUDED.expected_assists,
		creativity = EXCLUDED.creativity, starts = EXCLUDED.starts, minutes = EXCLUDED.minutes,
		selected_by_percent = EXCLUDED.selected_by_percent,
		transfers_in_event = EXCLUDED.transfers_in_event, transfers_out_event = EXCLUDED.transfers_out_event,
		price = EXCLUDED.price, ep_next = EXCLUDED.ep_next, updated_at = now()
`

// UpsertPlayers inserts or updates player attributes in one batch
func (r *PostgresPlayerRepository) UpsertPlayers(ctx context.Context, players []models.PlayerAttributes) error {
	batch := &pgx.Batch{}
	for _, p := range players {
		batch.Queue(upsertPlayer,
			p.ID, p.WebName, p.TeamID, p.Position.Index()+1, p.Status, p.ChanceOfPlaying,
			p.PointsPerGame, p.XGIPer90, p.XAPer90, p.ExpectedGoals, p.ExpectedAssists,
			p.Creativity, p.Starts, p.Minutes, p.SelectedByPercent,
			p.TransfersInEvent, p.TransfersOutEvent, p.Price, p.EPNext,
		)
	}
	return r.sendBatch(ctx, batch, "players")
}

const upsertHistory = `
	INSERT INTO player_history (player_id, period, points, minutes, goals, assists,
		clean_sheets, bonus, started, selected, transfers_balance, value)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (player_id, period) DO UPDATE SET
		points = EXCLUDED.points, minutes = EXCLUDED.minutes, goals = EXCLUDED.goals,
		assists = EXCLUDED.assists, clean_sheets = EXCLUDED.clean_sheets, bonus = EXCLUDED.bonus,
		started = EXCLUDED.started, selected = EXCLUDED.selected,
		transfers_balance = EXCLUDED.transfers_balance, value = EXCLUDED.value
`

// UpsertHistory inserts or updates one player's per-period records
func (r *PostgresPlayerRepository) UpsertHistory(ctx context.Context, playerID int, records []models.GameweekRecord) error {
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(upsertHistory,
			playerID, rec.Period, rec.Points, rec.Minutes, rec.Goals, rec.Assists,
			rec.CleanSheets, rec.Bonus, rec.Started, rec.Selected, rec.TransfersBalance, rec.Value,
		)
	}
	return r.sendBatch(ctx, batch, "player_history")
}

const upsertFixture = `
	INSERT INTO fixtures (id, period, team_h, team_a, team_h_difficulty, team_a_difficulty)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		period = EXCLUDED.period, team_h = EXCLUDED.team_h, team_a = EXCLUDED.team_a,
		team_h_difficulty = EXCLUDED.team_h_difficulty, team_a_difficulty = EXCLUDED.team_a_difficulty
`

// UpsertFixtures inserts or updates scheduled fixtures. Unscheduled fixtures (period 0) are skipped.
func (r *PostgresPlayerRepository) UpsertFixtures(ctx context.Context, fixtures []provider.Fixture) error {
	batch := &pgx.Batch{}
	for _, f := range fixtures {
		if f.Period <= 0 {
			continue
		}
		batch.Queue(upsertFixture, f.ID, f.Period, f.HomeTeam, f.AwayTeam, f.HomeDifficulty, f.AwayDifficulty)
	}
	return r.sendBatch(ctx, batch, "fixtures")
}

func (r *PostgresPlayerRepository) sendBatch(ctx context.Context, batch *pgx.Batch, table string) error {
	if batch.Len() == 0 {
		return nil
	}
	results := r.db.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to upsert %s row %d: %w", table, i, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close %s batch: %w", table, err)
	}
	return nil
}
