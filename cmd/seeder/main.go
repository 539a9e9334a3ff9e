package main

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/codeclash/arena/internal/challenge"
	"github.com/codeclash/arena/internal/database"
	"github.com/codeclash/arena/internal/judge"
	"github.com/joho/godotenv"
)

// Simplified config loading for the script
func loadConfig() (dbName, primaryURL, authToken, migrationsDir string) {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	dbName, ok := os.LookupEnv("DB_NAME")
	if !ok {
		log.Fatalf("Error: Required environment variable DB_NAME is not set.")
	}
	primaryURL = os.Getenv("TURSO_PRIMARY_URL")
	authToken = os.Getenv("TURSO_AUTH_TOKEN")
	migrationsDir = os.Getenv("MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = "./migrations"
	}
	return dbName, primaryURL, authToken, migrationsDir
}

func main() {
	log.Info("Starting challenge pool seeder...")
	dbName, primaryURL, authToken, migrationsDir := loadConfig()

	db, teardown, err := database.InitDB(dbName, primaryURL, authToken, migrationsDir)
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	store := challenge.New(db)
	startTime := time.Now()

	seeded := 0
	for _, c := range seedChallenges {
		if err := store.CreateChallenge(&c); err != nil {
			log.Fatalf("Failed to seed challenge %s: %s", c.ID, err)
		}
		seeded++
	}

	log.Info("Successfully seeded challenge pool.", "count", seeded, "duration", time.Since(startTime))
}

// seedChallenges is a small starter pool. Stable IDs make re-running the
// seeder an upsert rather than a duplicate insert.
var seedChallenges = []challenge.Challenge{
	{
		ID:         "two-sum",
		Title:      "Two Sum",
		Difficulty: "easy",
		TestCases: []judge.TestCase{
			{Input: "1 2", ExpectedOutput: "3", Points: 25},
			{Input: "40 2", ExpectedOutput: "42", Points: 25},
			{Input: "-5 5", ExpectedOutput: "0", Points: 25},
			{Input: "1000000 1000000", ExpectedOutput: "2000000", Points: 25},
		},
		ReferenceSolution: `package main

import "fmt"

func main() {
	var a, b int
	fmt.Scan(&a, &b)
	fmt.Println(a + b)
}
`,
	},
	{
		ID:         "reverse-string",
		Title:      "Reverse String",
		Difficulty: "easy",
		TestCases: []judge.TestCase{
			{Input: "hello", ExpectedOutput: "olleh", Points: 50},
			{Input: "a", ExpectedOutput: "a", Points: 50},
		},
		ReferenceSolution: `package main

import "fmt"

func main() {
	var s string
	fmt.Scan(&s)
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	fmt.Println(string(runes))
}
`,
	},
	{
		ID:         "fizzbuzz-sum",
		Title:      "FizzBuzz Sum",
		Difficulty: "medium",
		TestCases: []judge.TestCase{
			{Input: "10", ExpectedOutput: "33", Points: 50},
			{Input: "1000", ExpectedOutput: "233168", Points: 50},
		},
		ReferenceSolution: `package main

import "fmt"

func main() {
	var n int
	fmt.Scan(&n)
	sum := 0
	for i := 1; i < n; i++ {
		if i%3 == 0 || i%5 == 0 {
			sum += i
		}
	}
	fmt.Println(sum)
}
`,
	},
	{
		ID:         "longest-run",
		Title:      "Longest Run",
		Difficulty: "medium",
		TestCases: []judge.TestCase{
			{Input: "aabbbcc", ExpectedOutput: "3", Points: 50},
			{Input: "abc", ExpectedOutput: "1", Points: 50},
		},
		ReferenceSolution: `package main

import "fmt"

func main() {
	var s string
	fmt.Scan(&s)
	best, run := 0, 0
	var prev rune
	for i, r := range s {
		if i == 0 || r != prev {
			run = 0
		}
		run++
		if run > best {
			best = run
		}
		prev = r
	}
	fmt.Println(best)
}
`,
	},
	{
		ID:         "matrix-diagonal",
		Title:      "Matrix Diagonal Sum",
		Difficulty: "hard",
		TestCases: []judge.TestCase{
			{Input: "2\n1 2\n3 4", ExpectedOutput: "10", Points: 50},
			{Input: "3\n1 2 3\n4 5 6\n7 8 9", ExpectedOutput: "25", Points: 50},
		},
		ReferenceSolution: `package main

import "fmt"

func main() {
	var n int
	fmt.Scan(&n)
	grid := make([][]int, n)
	for i := range grid {
		grid[i] = make([]int, n)
		for j := range grid[i] {
			fmt.Scan(&grid[i][j])
		}
	}
	sum := 0
	for i := 0; i < n; i++ {
		sum += grid[i][i]
		if i != n-1-i {
			sum += grid[i][n-1-i]
		}
	}
	fmt.Println(sum)
}
`,
	},
}
