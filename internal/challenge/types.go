package challenge

import (
	"database/sql"
	"errors"
	"sync"

	"github.com/codeclash/arena/internal/judge"
)

// ErrNoChallenges is returned when the pool has nothing matching the request.
var ErrNoChallenges = errors.New("no challenges available")

type store struct {
	db *sql.DB
	mu sync.Mutex
}

// Challenge is one problem from the pool. The reference solution is what a
// bot opponent "submits".
type Challenge struct {
	ID                string           `json:"id"`
	Title             string           `json:"title"`
	Difficulty        string           `json:"difficulty"`
	TestCases         []judge.TestCase `json:"test_cases"`
	ReferenceSolution string           `json:"-"`
}

// MaxScore sums the points of all test cases.
func (c *Challenge) MaxScore() int {
	total := 0
	for _, tc := range c.TestCases {
		total += tc.Points
	}
	return total
}
