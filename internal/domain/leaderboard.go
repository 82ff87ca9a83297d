package domain

import "sort"

// LeaderboardEntry is one row of the final standings.
type LeaderboardEntry struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Points   int    `json:"points"`
	Rank     int    `json:"rank"`
}

// computeLeaderboard sorts players by total points descending (id
// ascending on ties, for determinism) and assigns dense ranks: equal
// totals share a rank and the next distinct total continues from the
// shared rank plus one.
func computeLeaderboard(players []*Player) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, LeaderboardEntry{
			PlayerID: p.ID(),
			Name:     p.Name(),
			Points:   p.Points(),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})

	rank := 0
	prevPoints := -1
	for i := range entries {
		if i == 0 || entries[i].Points != prevPoints {
			rank++
		}
		entries[i].Rank = rank
		prevPoints = entries[i].Points
	}
	return entries
}
