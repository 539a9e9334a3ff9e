package matchmaking

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// New creates a new queue service backed by the given database.
func New(db *sql.DB) QueueService {
	return &store{db: db}
}

func (s *store) Enqueue(userID, displayName string, rating int, language string, difficulty *string) (*QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Truncate(time.Second)
	entry := &QueueEntry{
		UserID:      userID,
		DisplayName: displayName,
		Rating:      rating,
		Language:    language,
		Difficulty:  difficulty,
		QueuedAt:    now,
		ExpiresAt:   now.Add(QueueTTL),
	}

	_, err := s.db.Exec(`
		INSERT INTO queue_entries (user_id, display_name, rating, language, difficulty, queued_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			display_name = excluded.display_name,
			rating       = excluded.rating,
			language     = excluded.language,
			difficulty   = excluded.difficulty,
			queued_at    = excluded.queued_at,
			expires_at   = excluded.expires_at`,
		entry.UserID, entry.DisplayName, entry.Rating, entry.Language, difficulty,
		entry.QueuedAt.Unix(), entry.ExpiresAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue player: %w", err)
	}

	log.Debug("Enqueued player", "userID", userID, "language", language, "rating", rating)
	return entry, nil
}

func (s *store) TryMatch(userID, language string, rating, ratingRange int) (*MatchedOpponent, error) {
	if ratingRange <= 0 {
		ratingRange = DefaultRatingRange
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	excluded := []string{userID}
	for {
		candidate, err := s.findCandidateLocked(language, rating, ratingRange, now, excluded)
		if err != nil {
			return nil, err
		}
		if candidate == nil {
			return nil, nil
		}

		claimed, err := s.claimLocked(candidate.UserID, now)
		if err != nil {
			return nil, err
		}
		if !claimed {
			// Expired between select and claim. Skip and look again.
			excluded = append(excluded, candidate.UserID)
			continue
		}

		// The match only stands if the caller is still queued too.
		ownClaimed, err := s.claimLocked(userID, now)
		if err != nil {
			return nil, err
		}
		if !ownClaimed {
			if err := s.restoreLocked(candidate); err != nil {
				return nil, err
			}
			return nil, ErrAlreadyMatched
		}

		log.Info("Matched players", "userID", userID, "opponentID", candidate.UserID, "language", language)
		return &MatchedOpponent{
			UserID:      candidate.UserID,
			DisplayName: candidate.DisplayName,
			Rating:      candidate.Rating,
			Difficulty:  candidate.Difficulty,
		}, nil
	}
}

func (s *store) Cancel(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM queue_entries WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to cancel queue entry: %w", err)
	}
	return nil
}

func (s *store) SweepExpired(now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM queue_entries WHERE expires_at <= ?", now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired queue entries: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count swept queue entries: %w", err)
	}
	if removed > 0 {
		log.Info("Swept expired queue entries", "removed", removed)
	}
	return removed, nil
}

func (s *store) GetEntry(userID string) (*QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
		SELECT user_id, display_name, rating, language, difficulty, queued_at, expires_at
		FROM queue_entries WHERE user_id = ? AND expires_at > ?`,
		userID, time.Now().Unix())
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue entry: %w", err)
	}
	return entry, nil
}

func (s *store) Depth(language string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := "SELECT COUNT(*) FROM queue_entries WHERE expires_at > ?"
	args := []any{time.Now().Unix()}
	if language != "" {
		query += " AND language = ?"
		args = append(args, language)
	}

	var depth int
	if err := s.db.QueryRow(query, args...).Scan(&depth); err != nil {
		return 0, fmt.Errorf("failed to count queue depth: %w", err)
	}
	return depth, nil
}

// findCandidateLocked picks the best live opponent: closest rating first,
// then longest waiting.
func (s *store) findCandidateLocked(language string, rating, ratingRange int, now time.Time, excluded []string) (*QueueEntry, error) {
	placeholders := strings.Repeat("?,", len(excluded))
	placeholders = placeholders[:len(placeholders)-1]

	args := []any{now.Unix(), language, rating - ratingRange, rating + ratingRange}
	for _, id := range excluded {
		args = append(args, id)
	}
	args = append(args, rating)

	row := s.db.QueryRow(fmt.Sprintf(`
		SELECT user_id, display_name, rating, language, difficulty, queued_at, expires_at
		FROM queue_entries
		WHERE expires_at > ? AND language = ? AND rating BETWEEN ? AND ?
		  AND user_id NOT IN (%s)
		ORDER BY ABS(rating - ?) ASC, queued_at ASC
		LIMIT 1`, placeholders), args...)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find match candidate: %w", err)
	}
	return entry, nil
}

// claimLocked is the compare-and-delete at the heart of matching: the row
// must still exist and still be live in the same statement that removes it.
func (s *store) claimLocked(userID string, now time.Time) (bool, error) {
	res, err := s.db.Exec("DELETE FROM queue_entries WHERE user_id = ? AND expires_at > ?", userID, now.Unix())
	if err != nil {
		return false, fmt.Errorf("failed to claim queue entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check queue entry claim: %w", err)
	}
	return affected == 1, nil
}

// restoreLocked puts a claimed entry back with its original timestamps,
// used when the caller's side of the match fell through.
func (s *store) restoreLocked(entry *QueueEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO queue_entries (user_id, display_name, rating, language, difficulty, queued_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING`,
		entry.UserID, entry.DisplayName, entry.Rating, entry.Language, entry.Difficulty,
		entry.QueuedAt.Unix(), entry.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to restore queue entry: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*QueueEntry, error) {
	var e QueueEntry
	var difficulty sql.NullString
	var queuedAt, expiresAt int64
	if err := row.Scan(&e.UserID, &e.DisplayName, &e.Rating, &e.Language, &difficulty, &queuedAt, &expiresAt); err != nil {
		return nil, err
	}
	if difficulty.Valid {
		e.Difficulty = &difficulty.String
	}
	e.QueuedAt = time.Unix(queuedAt, 0)
	e.ExpiresAt = time.Unix(expiresAt, 0)
	return &e, nil
}
