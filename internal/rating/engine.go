package rating

import "math"

const (
	// KFactor is the maximum rating swing per event.
	KFactor = 32
	// StartingRating is assigned when a player record is created.
	StartingRating = 1000
	// RatingFloor is the hard lower bound for any rating.
	RatingFloor = 100
	// NewPlayerWindow is the number of completed competitions below which
	// negative deltas are halved. Checked against the pre-increment count,
	// so a player's 10th competition is still protected.
	NewPlayerWindow = 10
)

// TierOf maps a rating to its tier. Boundaries are inclusive on the lower bound.
func TierOf(r int) Tier {
	switch {
	case r < 1400:
		return TierBronze
	case r < 1600:
		return TierSilver
	case r < 1800:
		return TierGold
	case r < 2000:
		return TierPlatinum
	case r < 2200:
		return TierDiamond
	case r < 2400:
		return TierMaster
	default:
		return TierGrandmaster
	}
}

// CompetitionPercentile converts a finishing rank into a 0-100 percentile,
// 100 being best.
func CompetitionPercentile(rank, totalParticipants int) float64 {
	return float64(totalParticipants-rank) / float64(totalParticipants) * 100
}

// CompetitionDelta computes the rating delta for a competition finish:
// a percentile-based term scaled by K, plus a bonus for podium ranks,
// dampened for new players when negative.
func CompetitionDelta(rank, totalParticipants, competitionsCompleted int) int {
	percentile := CompetitionPercentile(rank, totalParticipants)
	delta := int(math.Round(KFactor * (percentile/100 - 0.5)))

	switch {
	case rank == 1:
		delta += 15
	case rank <= 3:
		delta += 8
	case rank <= 10:
		delta += 3
	}

	if competitionsCompleted < NewPlayerWindow && delta < 0 {
		delta /= 2 // truncates toward zero
	}
	return delta
}

// DuelExpectedScore is the logistic expected score for a player against an
// opponent, using a 400-point base.
func DuelExpectedScore(playerRating, opponentRating int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponentRating-playerRating)/400))
}

// ComputeDuelDeltas computes both sides' deltas from the start-of-duel
// snapshots. For a draw both sides converge toward their expected score.
func ComputeDuelDeltas(winnerRating, loserRating int, isDraw bool) DuelDeltas {
	expectedWinner := DuelExpectedScore(winnerRating, loserRating)
	expectedLoser := 1 - expectedWinner

	if isDraw {
		return DuelDeltas{
			Winner: int(math.Round(KFactor * (0.5 - expectedWinner))),
			Loser:  int(math.Round(KFactor * (0.5 - expectedLoser))),
		}
	}
	return DuelDeltas{
		Winner: int(math.Round(KFactor * (1 - expectedWinner))),
		Loser:  int(math.Round(KFactor * (0 - expectedLoser))),
	}
}

// clampRating applies the rating floor.
func clampRating(r int) int {
	if r < RatingFloor {
		return RatingFloor
	}
	return r
}
