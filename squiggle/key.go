package squiggle

import "fmt"

// GameKey builds the stable game identifier from the round number and the
// game's ordinal within the round: two zero-padded round digits followed by
// the ordinal. Round 7 game 3 becomes "073".
func GameKey(roundNumber, gameNumber int) string {
	return fmt.Sprintf("%02d%d", roundNumber, gameNumber)
}
