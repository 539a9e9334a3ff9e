package challenge

// ChallengeStore is the problem pool duels draw from.
type ChallengeStore interface {
	// PickChallenge returns a random challenge, optionally restricted to a
	// difficulty. ErrNoChallenges when the pool is empty for the request.
	PickChallenge(difficulty *string) (*Challenge, error)
	GetChallenge(id string) (*Challenge, error)
	CreateChallenge(c *Challenge) error
}
