package rating

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// New creates a new RatingService backed by the given database.
func New(db *sql.DB) RatingService {
	return &store{db: db}
}

// ApplyCompetitionResult applies one participant's competition outcome as a
// single transaction: history insert plus player update, both or neither.
func (s *store) ApplyCompetitionResult(userID, competitionID string, rank, totalParticipants, scoreEarned int) (*PlayerRating, error) {
	if userID == "" || competitionID == "" {
		return nil, fmt.Errorf("%w: missing user or competition id", ErrInvalidResult)
	}
	if totalParticipants < 1 {
		return nil, fmt.Errorf("%w: totalParticipants must be >= 1, got %d", ErrInvalidResult, totalParticipants)
	}
	if rank < 1 || rank > totalParticipants {
		return nil, fmt.Errorf("%w: rank %d out of range [1, %d]", ErrInvalidResult, rank, totalParticipants)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	player, err := s.ensurePlayerLocked(tx, userID, "")
	if err != nil {
		return nil, err
	}

	applied, err := s.historyExistsLocked(tx, userID, competitionID)
	if err != nil {
		return nil, err
	}
	if applied {
		return nil, ErrAlreadyApplied
	}

	percentile := CompetitionPercentile(rank, totalParticipants)
	delta := CompetitionDelta(rank, totalParticipants, player.CompetitionsCompleted)
	oldRating := player.Rating
	newRating := clampRating(oldRating + delta)
	now := time.Now()

	player.Rating = newRating
	if newRating > player.PeakRating {
		player.PeakRating = newRating
	}
	player.Tier = TierOf(newRating)
	player.AveragePercentile = (player.AveragePercentile*float64(player.CompetitionsCompleted) + percentile) / float64(player.CompetitionsCompleted+1)
	player.CompetitionsCompleted++
	player.TotalScoreEarned += scoreEarned
	switch {
	case rank == 1:
		player.WinCount++
		player.Top3Count++
		player.Top10Count++
	case rank <= 3:
		player.Top3Count++
		player.Top10Count++
	case rank <= 10:
		player.Top10Count++
	}
	player.LastCompetitionAt = &now

	if err := s.insertHistoryLocked(tx, HistoryEntry{
		ID:                uuid.New().String(),
		UserID:            userID,
		SourceID:          competitionID,
		OldRating:         oldRating,
		NewRating:         newRating,
		Delta:             newRating - oldRating,
		RankAchieved:      &rank,
		Percentile:        &percentile,
		ParticipantsCount: &totalParticipants,
		CreatedAt:         now,
	}); err != nil {
		return nil, err
	}
	if err := s.updatePlayerLocked(tx, player); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit competition result: %w", err)
	}
	log.Info("Applied competition result", "userID", userID, "competitionID", competitionID, "rank", rank, "delta", newRating-oldRating, "newRating", newRating)
	return player, nil
}

// ApplyDuelResult applies both sides' deltas atomically. Bot sides are
// skipped entirely; their snapshot only shapes the expected-score curve.
func (s *store) ApplyDuelResult(duelID string, winner, loser DuelSide, isDraw bool) (DuelDeltas, error) {
	if duelID == "" {
		return DuelDeltas{}, fmt.Errorf("%w: missing duel id", ErrInvalidResult)
	}
	deltas := ComputeDuelDeltas(winner.RatingSnapshot, loser.RatingSnapshot, isDraw)

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return DuelDeltas{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sides := []struct {
		side  DuelSide
		delta int
		won   bool
	}{
		{winner, deltas.Winner, !isDraw},
		{loser, deltas.Loser, false},
	}
	now := time.Now()

	for _, entry := range sides {
		if entry.side.IsBot {
			continue
		}
		player, err := s.ensurePlayerLocked(tx, entry.side.UserID, entry.side.DisplayName)
		if err != nil {
			return DuelDeltas{}, err
		}
		applied, err := s.historyExistsLocked(tx, entry.side.UserID, duelID)
		if err != nil {
			return DuelDeltas{}, err
		}
		if applied {
			return DuelDeltas{}, ErrAlreadyApplied
		}

		oldRating := player.Rating
		newRating := clampRating(oldRating + entry.delta)
		player.Rating = newRating
		if newRating > player.PeakRating {
			player.PeakRating = newRating
		}
		player.Tier = TierOf(newRating)
		if !isDraw {
			if entry.won {
				player.CurrentStreak++
				if player.CurrentStreak > player.BestStreak {
					player.BestStreak = player.CurrentStreak
				}
			} else {
				player.CurrentStreak = 0
			}
		}

		if err := s.insertHistoryLocked(tx, HistoryEntry{
			ID:        uuid.New().String(),
			UserID:    entry.side.UserID,
			SourceID:  duelID,
			OldRating: oldRating,
			NewRating: newRating,
			Delta:     newRating - oldRating,
			CreatedAt: now,
		}); err != nil {
			return DuelDeltas{}, err
		}
		if err := s.updatePlayerLocked(tx, player); err != nil {
			return DuelDeltas{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return DuelDeltas{}, fmt.Errorf("failed to commit duel result: %w", err)
	}
	log.Info("Applied duel result", "duelID", duelID, "winnerID", winner.UserID, "loserID", loser.UserID, "draw", isDraw, "winnerDelta", deltas.Winner, "loserDelta", deltas.Loser)
	return deltas, nil
}

func (s *store) GetPlayerRating(userID string) (*PlayerRating, error) {
	row := s.db.QueryRow(playerSelect+" WHERE user_id = ?", userID)
	player, err := scanPlayer(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("player rating not found: %s", userID)
		}
		return nil, fmt.Errorf("failed to get player rating: %w", err)
	}
	return player, nil
}

// GetLeaderboard returns the rating-descending projection, excluding users
// below the minimum competition count to keep single-event noise out.
func (s *store) GetLeaderboard(minCompetitions, limit int) ([]PlayerRating, error) {
	rows, err := s.db.Query(playerSelect+`
		WHERE competitions_completed >= ?
		ORDER BY rating DESC, peak_rating DESC
		LIMIT ?`, minCompetitions, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var players []PlayerRating
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			log.Error("Failed to scan leaderboard row", "error", err)
			continue
		}
		players = append(players, *player)
	}
	return players, rows.Err()
}

func (s *store) GetHistory(userID string, limit int) ([]HistoryEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, source_id, old_rating, new_rating, delta, rank_achieved, percentile, participants_count, created_at
		FROM rating_history
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var rank, participants sql.NullInt64
		var percentile sql.NullFloat64
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.UserID, &e.SourceID, &e.OldRating, &e.NewRating, &e.Delta, &rank, &percentile, &participants, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if rank.Valid {
			r := int(rank.Int64)
			e.RankAchieved = &r
		}
		if percentile.Valid {
			p := percentile.Float64
			e.Percentile = &p
		}
		if participants.Valid {
			p := int(participants.Int64)
			e.ParticipantsCount = &p
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PruneHistory keeps the most recent keepPerUser entries per user.
func (s *store) PruneHistory(keepPerUser int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`
		DELETE FROM rating_history WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY created_at DESC, id DESC) AS rn
				FROM rating_history
			) WHERE rn > ?
		)`, keepPerUser)
	if err != nil {
		return 0, fmt.Errorf("failed to prune rating history: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.Info("Pruned rating history", "removed", removed, "keepPerUser", keepPerUser)
	}
	return removed, nil
}

const playerSelect = `
	SELECT user_id, display_name, rating, peak_rating, tier, competitions_completed, total_score_earned,
	       average_percentile, win_count, top3_count, top10_count, current_streak, best_streak, last_competition_at
	FROM player_ratings`

// ensurePlayerLocked lazily creates the player record with defaults and
// returns the current row. Caller must hold s.mu and pass an open tx.
func (s *store) ensurePlayerLocked(tx *sql.Tx, userID, displayName string) (*PlayerRating, error) {
	_, err := tx.Exec(`
		INSERT INTO player_ratings (user_id, display_name, rating, peak_rating, tier)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING`,
		userID, displayName, StartingRating, StartingRating, string(TierBronze))
	if err != nil {
		return nil, fmt.Errorf("failed to ensure player rating row: %w", err)
	}
	if displayName != "" {
		if _, err := tx.Exec("UPDATE player_ratings SET display_name = ? WHERE user_id = ?", displayName, userID); err != nil {
			return nil, fmt.Errorf("failed to refresh display name: %w", err)
		}
	}
	row := tx.QueryRow(playerSelect+" WHERE user_id = ?", userID)
	return scanPlayer(row)
}

func (s *store) historyExistsLocked(tx *sql.Tx, userID, sourceID string) (bool, error) {
	var exists bool
	err := tx.QueryRow("SELECT EXISTS(SELECT 1 FROM rating_history WHERE user_id = ? AND source_id = ?)", userID, sourceID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check rating history: %w", err)
	}
	return exists, nil
}

func (s *store) insertHistoryLocked(tx *sql.Tx, e HistoryEntry) error {
	var rank, participants any
	var percentile any
	if e.RankAchieved != nil {
		rank = *e.RankAchieved
	}
	if e.Percentile != nil {
		percentile = *e.Percentile
	}
	if e.ParticipantsCount != nil {
		participants = *e.ParticipantsCount
	}
	_, err := tx.Exec(`
		INSERT INTO rating_history (id, user_id, source_id, old_rating, new_rating, delta, rank_achieved, percentile, participants_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.SourceID, e.OldRating, e.NewRating, e.Delta, rank, percentile, participants, e.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert rating history: %w", err)
	}
	return nil
}

func (s *store) updatePlayerLocked(tx *sql.Tx, p *PlayerRating) error {
	var lastCompetitionAt any
	if p.LastCompetitionAt != nil {
		lastCompetitionAt = p.LastCompetitionAt.Unix()
	}
	_, err := tx.Exec(`
		UPDATE player_ratings SET
			display_name = ?, rating = ?, peak_rating = ?, tier = ?, competitions_completed = ?,
			total_score_earned = ?, average_percentile = ?, win_count = ?, top3_count = ?, top10_count = ?,
			current_streak = ?, best_streak = ?, last_competition_at = ?
		WHERE user_id = ?`,
		p.DisplayName, p.Rating, p.PeakRating, string(p.Tier), p.CompetitionsCompleted,
		p.TotalScoreEarned, p.AveragePercentile, p.WinCount, p.Top3Count, p.Top10Count,
		p.CurrentStreak, p.BestStreak, lastCompetitionAt, p.UserID)
	if err != nil {
		return fmt.Errorf("failed to update player rating: %w", err)
	}
	return nil
}

func scanPlayer(scanner interface{ Scan(...any) error }) (*PlayerRating, error) {
	var p PlayerRating
	var tier string
	var lastCompetitionAt sql.NullInt64
	err := scanner.Scan(
		&p.UserID, &p.DisplayName, &p.Rating, &p.PeakRating, &tier, &p.CompetitionsCompleted,
		&p.TotalScoreEarned, &p.AveragePercentile, &p.WinCount, &p.Top3Count, &p.Top10Count,
		&p.CurrentStreak, &p.BestStreak, &lastCompetitionAt,
	)
	if err != nil {
		return nil, err
	}
	p.Tier = Tier(tier)
	if lastCompetitionAt.Valid {
		t := time.Unix(lastCompetitionAt.Int64, 0)
		p.LastCompetitionAt = &t
	}
	return &p, nil
}
