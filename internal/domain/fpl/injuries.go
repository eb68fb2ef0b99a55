package fpl

import "sort"

// InjuryRecord is one flagged player, denormalized with the team name so it
// can render in chat context without a second lookup.
type InjuryRecord struct {
	PlayerID        int
	PlayerName      string
	WebName         string
	TeamID          int
	TeamName        string
	Status          string
	News            string
	ChanceOfPlaying *int
}

// ExtractInjuries returns every player whose availability is flagged. Players
// marked available or unknown are skipped. Team names resolve through the
// snapshot; a missing team reads as "Unknown".
func ExtractInjuries(snap *Snapshot) []InjuryRecord {
	if snap == nil {
		return nil
	}
	teamNames := make(map[int]string, len(snap.Teams))
	for _, t := range snap.Teams {
		teamNames[t.ID] = t.Name
	}

	out := make([]InjuryRecord, 0, 64)
	for _, p := range snap.Players {
		if p.Status == StatusAvailable || p.Status == StatusUnknown {
			continue
		}
		teamName, ok := teamNames[p.TeamID]
		if !ok {
			teamName = "Unknown"
		}
		out = append(out, InjuryRecord{
			PlayerID:        p.ID,
			PlayerName:      p.Name,
			WebName:         p.WebName,
			TeamID:          p.TeamID,
			TeamName:        teamName,
			Status:          p.Status,
			News:            p.News,
			ChanceOfPlaying: p.ChanceOfPlayingNextRound,
		})
	}
	return out
}

// GroupInjuriesByTeam buckets records under their team name, teams sorted
// alphabetically and players sorted by name within each team.
func GroupInjuriesByTeam(records []InjuryRecord) map[string][]InjuryRecord {
	grouped := make(map[string][]InjuryRecord, 20)
	for _, r := range records {
		grouped[r.TeamName] = append(grouped[r.TeamName], r)
	}
	for team := range grouped {
		rs := grouped[team]
		sort.Slice(rs, func(i, j int) bool { return rs[i].WebName < rs[j].WebName })
		grouped[team] = rs
	}
	return grouped
}
