package fplapi

import (
	"strings"
	"time"

	"github.com/ajmckee/fpl-assistant/internal/domain/fpl"
)

type bootstrapResponse struct {
	Events   []eventItem   `json:"events"`
	Teams    []teamItem    `json:"teams"`
	Elements []elementItem `json:"elements"`
}

type eventItem struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	IsCurrent         bool   `json:"is_current"`
	IsNext            bool   `json:"is_next"`
	Finished          bool   `json:"finished"`
	AverageEntryScore int    `json:"average_entry_score"`
	DeadlineTime      string `json:"deadline_time"`
}

type teamItem struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

type elementItem struct {
	ID                       int    `json:"id"`
	FirstName                string `json:"first_name"`
	SecondName               string `json:"second_name"`
	WebName                  string `json:"web_name"`
	Team                     int    `json:"team"`
	ElementType              int    `json:"element_type"`
	NowCost                  int    `json:"now_cost"`
	TotalPoints              int    `json:"total_points"`
	Form                     string `json:"form"`
	Minutes                  int    `json:"minutes"`
	Status                   string `json:"status"`
	News                     string `json:"news"`
	ChanceOfPlayingNextRound *int   `json:"chance_of_playing_next_round"`
}

type fixtureItem struct {
	Event           *int   `json:"event"`
	TeamH           int    `json:"team_h"`
	TeamA           int    `json:"team_a"`
	TeamHDifficulty int    `json:"team_h_difficulty"`
	TeamADifficulty int    `json:"team_a_difficulty"`
	KickoffTime     string `json:"kickoff_time"`
}

type entryResponse struct {
	ID                 int    `json:"id"`
	PlayerFirstName    string `json:"player_first_name"`
	PlayerLastName     string `json:"player_last_name"`
	Name               string `json:"name"`
	SummaryOverallPts  int    `json:"summary_overall_points"`
	SummaryOverallRank int    `json:"summary_overall_rank"`
	SummaryEventPoints int    `json:"summary_event_points"`
	CurrentEvent       int    `json:"current_event"`
}

type picksResponse struct {
	Picks []pickItem `json:"picks"`
}

type pickItem struct {
	Element       int  `json:"element"`
	Position      int  `json:"position"`
	Multiplier    int  `json:"multiplier"`
	IsCaptain     bool `json:"is_captain"`
	IsViceCaptain bool `json:"is_vice_captain"`
}

func mapBootstrap(src bootstrapResponse) ([]fpl.Player, []fpl.Team, []fpl.Gameweek) {
	players := make([]fpl.Player, 0, len(src.Elements))
	for _, item := range src.Elements {
		players = append(players, fpl.Player{
			ID:                       item.ID,
			Name:                     strings.TrimSpace(item.FirstName + " " + item.SecondName),
			WebName:                  item.WebName,
			TeamID:                   item.Team,
			Position:                 item.ElementType,
			NowCost:                  item.NowCost,
			TotalPoints:              item.TotalPoints,
			Form:                     item.Form,
			Minutes:                  item.Minutes,
			Status:                   item.Status,
			News:                     item.News,
			ChanceOfPlayingNextRound: item.ChanceOfPlayingNextRound,
		})
	}

	teams := make([]fpl.Team, 0, len(src.Teams))
	for _, item := range src.Teams {
		teams = append(teams, fpl.Team{ID: item.ID, Name: item.Name, ShortName: item.ShortName})
	}

	gameweeks := make([]fpl.Gameweek, 0, len(src.Events))
	for _, item := range src.Events {
		gameweeks = append(gameweeks, fpl.Gameweek{
			ID:                item.ID,
			IsCurrent:         item.IsCurrent,
			IsNext:            item.IsNext,
			Finished:          item.Finished,
			AverageEntryScore: item.AverageEntryScore,
			DeadlineTime:      parseUpstreamTime(item.DeadlineTime),
		})
	}

	return players, teams, gameweeks
}

func mapFixtures(src []fixtureItem) []fpl.Fixture {
	out := make([]fpl.Fixture, 0, len(src))
	for _, item := range src {
		out = append(out, fpl.Fixture{
			Event:           item.Event,
			TeamH:           item.TeamH,
			TeamA:           item.TeamA,
			TeamHDifficulty: item.TeamHDifficulty,
			TeamADifficulty: item.TeamADifficulty,
			KickoffTime:     parseUpstreamTime(item.KickoffTime),
		})
	}
	return out
}

func mapEntry(src entryResponse) fpl.ManagerProfile {
	return fpl.ManagerProfile{
		ID:            src.ID,
		FirstName:     src.PlayerFirstName,
		LastName:      src.PlayerLastName,
		TeamName:      src.Name,
		OverallPoints: src.SummaryOverallPts,
		OverallRank:   src.SummaryOverallRank,
		EventPoints:   src.SummaryEventPoints,
		CurrentEvent:  src.CurrentEvent,
	}
}

func mapPicks(src picksResponse) []fpl.Pick {
	out := make([]fpl.Pick, 0, len(src.Picks))
	for _, item := range src.Picks {
		out = append(out, fpl.Pick{
			Element:       item.Element,
			Position:      item.Position,
			Multiplier:    item.Multiplier,
			IsCaptain:     item.IsCaptain,
			IsViceCaptain: item.IsViceCaptain,
		})
	}
	return out
}

// parseUpstreamTime reads the provider's RFC3339 timestamps; null or
// malformed values read as the zero time.
func parseUpstreamTime(raw string) time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}
