package duel

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewStore creates a new duel store backed by the given database.
func NewStore(db *sql.DB) DuelStore {
	return &store{db: db}
}

const duelSelect = `
	SELECT id, challenge_id, language, status,
	       p1_id, p1_name, p1_rating,
	       p2_id, p2_name, p2_rating, p2_is_bot,
	       winner_id, p1_score, p2_score, p1_elapsed_ms, p2_elapsed_ms,
	       p1_submitted_at, p2_submitted_at, rating_change_p1, rating_change_p2,
	       created_at, started_at, ended_at
	FROM duels`

func (s *store) CreateDuel(d *Duel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	var p2ID, p2Name any
	var p2Rating int
	var p2IsBot bool
	if d.P2 != nil {
		p2ID, p2Name, p2Rating, p2IsBot = d.P2.ID, d.P2.Name, d.P2.RatingSnapshot, d.P2.IsBot
	}

	_, err := s.db.Exec(`
		INSERT INTO duels (id, challenge_id, language, status, p1_id, p1_name, p1_rating,
			p2_id, p2_name, p2_rating, p2_is_bot, created_at, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.ChallengeID, d.Language, string(d.Status),
		d.P1.ID, d.P1.Name, d.P1.RatingSnapshot,
		p2ID, p2Name, p2Rating, p2IsBot,
		d.CreatedAt.Unix(), nullableUnix(d.StartedAt))
	if err != nil {
		return fmt.Errorf("failed to create duel: %w", err)
	}
	return nil
}

func (s *store) GetDuel(id string) (*Duel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getDuelLocked(id)
}

func (s *store) getDuelLocked(id string) (*Duel, error) {
	d, err := scanDuel(s.db.QueryRow(duelSelect+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, ErrDuelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get duel: %w", err)
	}
	return d, nil
}

func (s *store) ListDuels(status Status, limit int) ([]Duel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := duelSelect
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	return s.queryDuels(query, args...)
}

func (s *store) ListStale(status Status, cutoff time.Time) ([]Duel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Waiting duels age from creation, active ones from their start.
	column := "created_at"
	if status == StatusActive {
		column = "started_at"
	}
	query := fmt.Sprintf("%s WHERE status = ? AND %s <= ? ORDER BY %s ASC", duelSelect, column, column)
	return s.queryDuels(query, string(status), cutoff.Unix())
}

func (s *store) UpdateStatus(id string, to Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.getDuelLocked(id)
	if err != nil {
		return err
	}
	if !canTransition(d.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.Status, to)
	}

	res, err := s.db.Exec("UPDATE duels SET status = ? WHERE id = ? AND status = ?",
		string(to), id, string(d.Status))
	if err != nil {
		return fmt.Errorf("failed to update duel status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.Status, to)
	}
	return nil
}

func (s *store) ActivateDuel(id string, p2 Side, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE duels SET status = ?, p2_id = ?, p2_name = ?, p2_rating = ?, p2_is_bot = ?, started_at = ?
		WHERE id = ? AND status = ?`,
		string(StatusActive), p2.ID, p2.Name, p2.RatingSnapshot, p2.IsBot, startedAt.Unix(),
		id, string(StatusWaiting))
	if err != nil {
		return fmt.Errorf("failed to activate duel: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: duel %s is not waiting", ErrInvalidTransition, id)
	}
	return nil
}

func (s *store) CreateSubmission(sub *Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now()
	}
	if sub.Status == "" {
		sub.Status = SubmissionPending
	}

	var exists int
	err := s.db.QueryRow("SELECT COUNT(*) FROM duel_submissions WHERE duel_id = ? AND user_id = ?",
		sub.DuelID, sub.UserID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check existing submission: %w", err)
	}
	if exists > 0 {
		return ErrAlreadySubmitted
	}

	_, err = s.db.Exec(`
		INSERT INTO duel_submissions (id, duel_id, user_id, code, language, status, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.DuelID, sub.UserID, sub.Code, sub.Language, string(sub.Status), sub.SubmittedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (s *store) FinalizeSubmission(sub *Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE duel_submissions
		SET status = ?, score = ?, tests_passed = ?, tests_total = ?, elapsed_ms = ?, error = ?
		WHERE id = ?`,
		string(sub.Status), sub.Score, sub.TestsPassed, sub.TestsTotal, sub.ElapsedMs, sub.Error, sub.ID)
	if err != nil {
		return fmt.Errorf("failed to finalize submission: %w", err)
	}
	return nil
}

func (s *store) GetSubmissions(duelID string) ([]Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, duel_id, user_id, code, language, status, score, tests_passed, tests_total, elapsed_ms, error, submitted_at
		FROM duel_submissions WHERE duel_id = ? ORDER BY submitted_at ASC`, duelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var sub Submission
		var status string
		var errMsg sql.NullString
		var submittedAt int64
		if err := rows.Scan(&sub.ID, &sub.DuelID, &sub.UserID, &sub.Code, &sub.Language, &status,
			&sub.Score, &sub.TestsPassed, &sub.TestsTotal, &sub.ElapsedMs, &errMsg, &submittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		sub.Status = SubmissionStatus(status)
		if errMsg.Valid {
			sub.Error = &errMsg.String
		}
		sub.SubmittedAt = time.Unix(submittedAt, 0)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *store) RecordSideResult(duelID, userID string, score, elapsedMs int, submittedAt time.Time) (*Duel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.getDuelLocked(duelID)
	if err != nil {
		return nil, err
	}

	var query string
	switch {
	case d.P1.ID == userID:
		query = "UPDATE duels SET p1_score = ?, p1_elapsed_ms = ?, p1_submitted_at = ? WHERE id = ?"
	case d.P2 != nil && d.P2.ID == userID:
		query = "UPDATE duels SET p2_score = ?, p2_elapsed_ms = ?, p2_submitted_at = ? WHERE id = ?"
	default:
		return nil, ErrNotParticipant
	}

	if _, err := s.db.Exec(query, score, elapsedMs, submittedAt.Unix(), duelID); err != nil {
		return nil, fmt.Errorf("failed to record side result: %w", err)
	}
	return s.getDuelLocked(duelID)
}

func (s *store) CompleteDuel(id string, winnerID *string, ratingChangeP1, ratingChangeP2 int, endedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE duels SET status = ?, winner_id = ?, rating_change_p1 = ?, rating_change_p2 = ?, ended_at = ?
		WHERE id = ? AND status = ?`,
		string(StatusCompleted), winnerID, ratingChangeP1, ratingChangeP2, endedAt.Unix(),
		id, string(StatusActive))
	if err != nil {
		return fmt.Errorf("failed to complete duel: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: duel %s is not active", ErrInvalidTransition, id)
	}
	return nil
}

func (s *store) CancelDuel(id string, endedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE duels SET status = ?, ended_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		string(StatusCancelled), endedAt.Unix(),
		id, string(StatusWaiting), string(StatusActive))
	if err != nil {
		return fmt.Errorf("failed to cancel duel: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: duel %s is already terminal", ErrInvalidTransition, id)
	}
	return nil
}

func (s *store) queryDuels(query string, args ...any) ([]Duel, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list duels: %w", err)
	}
	defer rows.Close()

	var duels []Duel
	for rows.Next() {
		d, err := scanDuel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan duel: %w", err)
		}
		duels = append(duels, *d)
	}
	return duels, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDuel(row rowScanner) (*Duel, error) {
	var d Duel
	var status string
	var p2ID, p2Name, winnerID sql.NullString
	var p2Rating int
	var p2IsBot bool
	var p1Score, p2Score, p1Elapsed, p2Elapsed, changeP1, changeP2 sql.NullInt64
	var p1SubmittedAt, p2SubmittedAt, startedAt, endedAt sql.NullInt64
	var createdAt int64

	err := row.Scan(&d.ID, &d.ChallengeID, &d.Language, &status,
		&d.P1.ID, &d.P1.Name, &d.P1.RatingSnapshot,
		&p2ID, &p2Name, &p2Rating, &p2IsBot,
		&winnerID, &p1Score, &p2Score, &p1Elapsed, &p2Elapsed,
		&p1SubmittedAt, &p2SubmittedAt, &changeP1, &changeP2,
		&createdAt, &startedAt, &endedAt)
	if err != nil {
		return nil, err
	}

	d.Status = Status(status)
	if p2ID.Valid {
		d.P2 = &Side{ID: p2ID.String, Name: p2Name.String, RatingSnapshot: p2Rating, IsBot: p2IsBot}
	}
	if winnerID.Valid {
		d.WinnerID = &winnerID.String
	}
	d.P1Score = nullableInt(p1Score)
	d.P2Score = nullableInt(p2Score)
	d.P1ElapsedMs = nullableInt(p1Elapsed)
	d.P2ElapsedMs = nullableInt(p2Elapsed)
	d.RatingChangeP1 = nullableInt(changeP1)
	d.RatingChangeP2 = nullableInt(changeP2)
	d.P1SubmittedAt = nullableTime(p1SubmittedAt)
	d.P2SubmittedAt = nullableTime(p2SubmittedAt)
	d.CreatedAt = time.Unix(createdAt, 0)
	d.StartedAt = nullableTime(startedAt)
	d.EndedAt = nullableTime(endedAt)
	return &d, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullableTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0)
	return &t
}

func nullableUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
