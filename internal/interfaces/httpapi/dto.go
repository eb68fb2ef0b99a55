package httpapi

import (
	"sort"
	"time"

	"github.com/ajmckee/fpl-assistant/internal/domain/chips"
	"github.com/ajmckee/fpl-assistant/internal/domain/fpl"
	"github.com/ajmckee/fpl-assistant/internal/usecase"
)

type chatRequest struct {
	Message string `json:"message" validate:"required"`
	TeamID  int    `json:"team_id" validate:"gte=0"`
}

type chatResponseDTO struct {
	Reply string `json:"reply"`
}

type chipRecommendationsDTO struct {
	CurrentGameweek int                  `json:"currentGameweek"`
	BenchBoost      []gameweekMetricDTO  `json:"benchBoost"`
	TripleCaptain   []gameweekMetricDTO  `json:"tripleCaptain"`
}

type gameweekMetricDTO struct {
	Gameweek                  int              `json:"gameweek"`
	DifficultyScore           float64          `json:"difficultyScore"`
	TeamsWithMultipleFixtures int              `json:"teamsWithMultipleFixtures"`
	AvgFixtureDifficulty      float64          `json:"avgFixtureDifficulty"`
	Teams                     []teamOutlookDTO `json:"teams"`
}

type teamOutlookDTO struct {
	TeamID        int                `json:"teamId"`
	Name          string             `json:"name"`
	ShortName     string             `json:"shortName"`
	FixturesCount int                `json:"fixturesCount"`
	AvgDifficulty float64            `json:"avgDifficulty"`
	Fixtures      []fixtureDetailDTO `json:"fixtures"`
}

type fixtureDetailDTO struct {
	Opponent   string `json:"opponent"`
	IsHome     bool   `json:"isHome"`
	Difficulty int    `json:"difficulty"`
}

type playerScoreDTO struct {
	PlayerID      int     `json:"playerId"`
	WebName       string  `json:"webName"`
	TeamID        int     `json:"teamId"`
	Position      int     `json:"position"`
	Score         float64 `json:"score"`
	Form          float64 `json:"form"`
	FixturesCount int     `json:"fixturesCount"`
	AvgDifficulty float64 `json:"avgDifficulty"`
	TotalPoints   int     `json:"totalPoints"`
}

type injuryRecordDTO struct {
	PlayerID        int    `json:"playerId"`
	PlayerName      string `json:"playerName"`
	WebName         string `json:"webName"`
	TeamID          int    `json:"teamId"`
	TeamName        string `json:"teamName"`
	Status          string `json:"status"`
	News            string `json:"news,omitempty"`
	ChanceOfPlaying *int   `json:"chanceOfPlaying,omitempty"`
}

type teamDetailDTO struct {
	TeamID    int         `json:"teamId"`
	Name      string      `json:"name"`
	ShortName string      `json:"shortName"`
	Players   []playerDTO `json:"players"`
}

type playerDTO struct {
	PlayerID    int     `json:"playerId"`
	Name        string  `json:"name"`
	WebName     string  `json:"webName"`
	Position    int     `json:"position"`
	CostM       float64 `json:"costMillions"`
	TotalPoints int     `json:"totalPoints"`
	Form        string  `json:"form"`
	Status      string  `json:"status"`
}

type gameweekDTO struct {
	Gameweek          int        `json:"gameweek"`
	IsCurrent         bool       `json:"isCurrent"`
	IsNext            bool       `json:"isNext"`
	Finished          bool       `json:"finished"`
	AverageEntryScore int        `json:"averageEntryScore"`
	DeadlineTime      *time.Time `json:"deadlineTime,omitempty"`
}

func chipRecommendationsToDTO(recs usecase.ChipRecommendations) chipRecommendationsDTO {
	return chipRecommendationsDTO{
		CurrentGameweek: recs.CurrentGameweek,
		BenchBoost:      metricsToDTO(recs.BenchBoost),
		TripleCaptain:   metricsToDTO(recs.TripleCaptain),
	}
}

func metricsToDTO(metrics []chips.GameweekMetric) []gameweekMetricDTO {
	out := make([]gameweekMetricDTO, 0, len(metrics))
	for _, m := range metrics {
		teams := make([]teamOutlookDTO, 0, len(m.TeamData))
		for teamID, detail := range m.TeamData {
			fixtures := make([]fixtureDetailDTO, 0, len(detail.FixtureDetails))
			for _, f := range detail.FixtureDetails {
				fixtures = append(fixtures, fixtureDetailDTO{
					Opponent:   f.Opponent,
					IsHome:     f.IsHome,
					Difficulty: f.Difficulty,
				})
			}
			teams = append(teams, teamOutlookDTO{
				TeamID:        teamID,
				Name:          detail.Name,
				ShortName:     detail.ShortName,
				FixturesCount: detail.FixturesCount,
				AvgDifficulty: detail.AvgDifficulty,
				Fixtures:      fixtures,
			})
		}
		sort.Slice(teams, func(i, j int) bool { return teams[i].TeamID < teams[j].TeamID })

		out = append(out, gameweekMetricDTO{
			Gameweek:                  m.Gameweek,
			DifficultyScore:           m.DifficultyScore,
			TeamsWithMultipleFixtures: m.TeamsWithMultipleFixtures,
			AvgFixtureDifficulty:      m.AvgFixtureDifficulty,
			Teams:                     teams,
		})
	}
	return out
}

func playerScoresToDTO(scores []chips.PlayerScore) []playerScoreDTO {
	out := make([]playerScoreDTO, 0, len(scores))
	for _, s := range scores {
		out = append(out, playerScoreDTO{
			PlayerID:      s.PlayerID,
			WebName:       s.WebName,
			TeamID:        s.TeamID,
			Position:      s.Position,
			Score:         s.Score,
			Form:          s.Form,
			FixturesCount: s.FixturesCount,
			AvgDifficulty: s.AvgDifficulty,
			TotalPoints:   s.TotalPoints,
		})
	}
	return out
}

func injuriesToDTO(records []fpl.InjuryRecord) []injuryRecordDTO {
	out := make([]injuryRecordDTO, 0, len(records))
	for _, r := range records {
		out = append(out, injuryRecordDTO{
			PlayerID:        r.PlayerID,
			PlayerName:      r.PlayerName,
			WebName:         r.WebName,
			TeamID:          r.TeamID,
			TeamName:        r.TeamName,
			Status:          r.Status,
			News:            r.News,
			ChanceOfPlaying: r.ChanceOfPlaying,
		})
	}
	return out
}

func teamDetailToDTO(detail usecase.TeamDetail) teamDetailDTO {
	players := make([]playerDTO, 0, len(detail.Players))
	for _, p := range detail.Players {
		players = append(players, playerDTO{
			PlayerID:    p.ID,
			Name:        p.Name,
			WebName:     p.WebName,
			Position:    p.Position,
			CostM:       p.CostMillions(),
			TotalPoints: p.TotalPoints,
			Form:        p.Form,
			Status:      p.Status,
		})
	}
	return teamDetailDTO{
		TeamID:    detail.Team.ID,
		Name:      detail.Team.Name,
		ShortName: detail.Team.ShortName,
		Players:   players,
	}
}

func gameweeksToDTO(gameweeks []fpl.Gameweek) []gameweekDTO {
	out := make([]gameweekDTO, 0, len(gameweeks))
	for _, gw := range gameweeks {
		dto := gameweekDTO{
			Gameweek:          gw.ID,
			IsCurrent:         gw.IsCurrent,
			IsNext:            gw.IsNext,
			Finished:          gw.Finished,
			AverageEntryScore: gw.AverageEntryScore,
		}
		if !gw.DeadlineTime.IsZero() {
			deadline := gw.DeadlineTime
			dto.DeadlineTime = &deadline
		}
		out = append(out, dto)
	}
	return out
}
