package challenge

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/codeclash/arena/internal/judge"
	"github.com/google/uuid"
)

// New creates a new challenge store backed by the given database.
func New(db *sql.DB) ChallengeStore {
	return &store{db: db}
}

func (s *store) PickChallenge(difficulty *string) (*Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := "SELECT id, title, difficulty, test_cases_json, reference_solution FROM challenges"
	args := []any{}
	if difficulty != nil {
		query += " WHERE difficulty = ?"
		args = append(args, *difficulty)
	}
	query += " ORDER BY RANDOM() LIMIT 1"

	c, err := scanChallenge(s.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrNoChallenges
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pick challenge: %w", err)
	}
	log.Debug("Picked challenge", "challengeID", c.ID, "difficulty", c.Difficulty)
	return c, nil
}

func (s *store) GetChallenge(id string) (*Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := scanChallenge(s.db.QueryRow(
		"SELECT id, title, difficulty, test_cases_json, reference_solution FROM challenges WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, ErrNoChallenges
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return c, nil
}

func (s *store) CreateChallenge(c *Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	testCases, err := json.Marshal(c.TestCases)
	if err != nil {
		return fmt.Errorf("failed to encode test cases: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO challenges (id, title, difficulty, test_cases_json, reference_solution)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title              = excluded.title,
			difficulty         = excluded.difficulty,
			test_cases_json    = excluded.test_cases_json,
			reference_solution = excluded.reference_solution`,
		c.ID, c.Title, c.Difficulty, string(testCases), c.ReferenceSolution)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChallenge(row rowScanner) (*Challenge, error) {
	var c Challenge
	var testCasesJSON string
	if err := row.Scan(&c.ID, &c.Title, &c.Difficulty, &testCasesJSON, &c.ReferenceSolution); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(testCasesJSON), &c.TestCases); err != nil {
		return nil, fmt.Errorf("failed to decode test cases: %w", err)
	}
	if c.TestCases == nil {
		c.TestCases = []judge.TestCase{}
	}
	return &c, nil
}
