package fpl

import (
	"strconv"
	"strings"
	"time"
)

// Player availability codes as published by the upstream bootstrap.
const (
	StatusAvailable    = "a"
	StatusDoubtful     = "d"
	StatusInjured      = "i"
	StatusSuspended    = "s"
	StatusUnknown      = "u"
	StatusNotAvailable = "n"
)

const (
	PositionGoalkeeper = 1
	PositionDefender   = 2
	PositionMidfielder = 3
	PositionForward    = 4
)

// Player is one bootstrap element. Read-only after a snapshot is fetched.
type Player struct {
	ID                       int
	Name                     string
	WebName                  string
	TeamID                   int
	Position                 int
	NowCost                  int // tenths of a million
	TotalPoints              int
	Form                     string // decimal string, may be "-"
	Minutes                  int
	Status                   string
	News                     string
	ChanceOfPlayingNextRound *int
}

type Team struct {
	ID        int
	Name      string
	ShortName string
}

type Gameweek struct {
	ID                int
	IsCurrent         bool
	IsNext            bool
	Finished          bool
	AverageEntryScore int
	DeadlineTime      time.Time
}

// Fixture is one scheduled match. Event is nil until the fixture is assigned
// to a gameweek.
type Fixture struct {
	Event           *int
	TeamH           int
	TeamA           int
	TeamHDifficulty int
	TeamADifficulty int
	KickoffTime     time.Time
}

// Snapshot is the full upstream dataset as of one fetch. It is never mutated;
// the cache swaps whole snapshots atomically.
type Snapshot struct {
	Players   []Player
	Teams     []Team
	Gameweeks []Gameweek
	Fixtures  []Fixture
	FetchedAt time.Time
}

func (s *Snapshot) IsStale(now time.Time, ttl time.Duration) bool {
	if s == nil || s.FetchedAt.IsZero() {
		return true
	}
	return now.Sub(s.FetchedAt) > ttl
}

// CurrentGameweek returns the gameweek flagged as current, falling back to
// the earliest unfinished one when the flag is absent.
func (s *Snapshot) CurrentGameweek() (Gameweek, bool) {
	if s == nil {
		return Gameweek{}, false
	}
	for _, gw := range s.Gameweeks {
		if gw.IsCurrent {
			return gw, true
		}
	}

	var fallback Gameweek
	found := false
	for _, gw := range s.Gameweeks {
		if gw.Finished {
			continue
		}
		if !found || gw.ID < fallback.ID {
			fallback = gw
			found = true
		}
	}
	return fallback, found
}

func (s *Snapshot) NextGameweek() (Gameweek, bool) {
	if s == nil {
		return Gameweek{}, false
	}
	for _, gw := range s.Gameweeks {
		if gw.IsNext {
			return gw, true
		}
	}
	return Gameweek{}, false
}

func (s *Snapshot) TeamByID(id int) (Team, bool) {
	if s == nil {
		return Team{}, false
	}
	for _, t := range s.Teams {
		if t.ID == id {
			return t, true
		}
	}
	return Team{}, false
}

func (s *Snapshot) PlayersByTeam(teamID int) []Player {
	if s == nil {
		return nil
	}
	out := make([]Player, 0, 30)
	for _, p := range s.Players {
		if p.TeamID == teamID {
			out = append(out, p)
		}
	}
	return out
}

// ManagerProfile is one FPL entry (a human manager's team), fetched on demand
// rather than cached with the snapshot.
type ManagerProfile struct {
	ID            int
	FirstName     string
	LastName      string
	TeamName      string
	OverallPoints int
	OverallRank   int
	EventPoints   int
	CurrentEvent  int
}

// Pick is one slot in a manager's squad for a gameweek. Position 1..11 is the
// starting eleven, 12..15 the bench.
type Pick struct {
	Element       int
	Position      int
	Multiplier    int
	IsCaptain     bool
	IsViceCaptain bool
}

// FormValue parses the upstream form string; "-" and garbage read as zero.
func (p Player) FormValue() float64 {
	form := strings.TrimSpace(p.Form)
	if form == "" || form == "-" {
		return 0
	}
	v, err := strconv.ParseFloat(form, 64)
	if err != nil {
		return 0
	}
	return v
}

func (p Player) CostMillions() float64 {
	return float64(p.NowCost) / 10.0
}
