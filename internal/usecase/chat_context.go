package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/valyala/bytebufferpool"

	"github.com/ajmckee/fpl-assistant/internal/domain/fpl"
	"github.com/ajmckee/fpl-assistant/internal/domain/history"
)

const (
	maxInjuryLines    = 20
	maxInFormPlayers  = 10
	maxHistoryLines   = 5
	contextWordBudget = 900
	minutesForInForm  = 450
)

var positionNames = map[int]string{
	fpl.PositionGoalkeeper: "GK",
	fpl.PositionDefender:   "DEF",
	fpl.PositionMidfielder: "MID",
	fpl.PositionForward:    "FWD",
}

// chatContext holds everything the prompt can mention. Manager and history
// are optional and simply absent when unavailable.
type chatContext struct {
	snapshot *fpl.Snapshot
	manager  *fpl.ManagerProfile
	picks    []fpl.Pick
	history  []history.GameweekStat
}

// render assembles the plain-text context block. Sections are appended in
// fixed order until the approximate word budget runs out, so the most
// important facts survive truncation.
func (c chatContext) render() string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	w := &budgetWriter{buf: buf, budget: contextWordBudget}

	c.writeGameweekSection(w)
	c.writeFixtureSection(w)
	c.writeInjurySection(w)
	c.writeInFormSection(w)
	c.writeManagerSection(w)
	c.writeHistorySection(w)

	return strings.TrimSpace(buf.String())
}

func (c chatContext) writeGameweekSection(w *budgetWriter) {
	current, ok := c.snapshot.CurrentGameweek()
	if !ok {
		return
	}
	w.line("Current gameweek: %d", current.ID)
	if next, ok := c.snapshot.NextGameweek(); ok && !next.DeadlineTime.IsZero() {
		w.line("Next deadline: gameweek %d at %s", next.ID, next.DeadlineTime.Format("Mon 2 Jan 15:04 MST"))
	}
	w.line("")
}

// writeFixtureSection lists fixtures of the current and next gameweek only.
func (c chatContext) writeFixtureSection(w *budgetWriter) {
	current, ok := c.snapshot.CurrentGameweek()
	if !ok {
		return
	}
	wanted := map[int]bool{current.ID: true}
	if next, ok := c.snapshot.NextGameweek(); ok {
		wanted[next.ID] = true
	}

	lines := make([]string, 0, 20)
	for _, f := range c.snapshot.Fixtures {
		if f.Event == nil || !wanted[*f.Event] {
			continue
		}
		home, _ := c.snapshot.TeamByID(f.TeamH)
		away, _ := c.snapshot.TeamByID(f.TeamA)
		lines = append(lines, fmt.Sprintf("GW%d: %s vs %s (difficulty %d/%d)",
			*f.Event, teamOrUnknown(home), teamOrUnknown(away), f.TeamHDifficulty, f.TeamADifficulty))
	}
	if len(lines) == 0 {
		return
	}

	w.line("Upcoming fixtures:")
	for _, line := range lines {
		w.line("%s", line)
	}
	w.line("")
}

func (c chatContext) writeInjurySection(w *budgetWriter) {
	lines := selectInjuryLines(fpl.ExtractInjuries(c.snapshot))
	if len(lines) == 0 {
		return
	}
	w.line("Injury news:")
	for _, line := range lines {
		w.line("%s", line)
	}
	w.line("")
}

func (c chatContext) writeInFormSection(w *budgetWriter) {
	type formEntry struct {
		player fpl.Player
		form   float64
	}
	entries := make([]formEntry, 0, 64)
	for _, p := range c.snapshot.Players {
		if p.Status != fpl.StatusAvailable || p.Minutes < minutesForInForm {
			continue
		}
		if form := p.FormValue(); form > 0 {
			entries = append(entries, formEntry{player: p, form: form})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].form != entries[j].form {
			return entries[i].form > entries[j].form
		}
		return entries[i].player.ID < entries[j].player.ID
	})
	if len(entries) > maxInFormPlayers {
		entries = entries[:maxInFormPlayers]
	}
	if len(entries) == 0 {
		return
	}

	w.line("In-form players:")
	for _, e := range entries {
		team, _ := c.snapshot.TeamByID(e.player.TeamID)
		w.line("%s (%s, %s) form %.1f, %d pts, £%.1fm",
			e.player.WebName, teamOrUnknown(team), positionName(e.player.Position),
			e.form, e.player.TotalPoints, e.player.CostMillions())
	}
	w.line("")
}

func (c chatContext) writeManagerSection(w *budgetWriter) {
	if c.manager == nil {
		return
	}
	m := c.manager
	w.line("Manager's team: %s (%s %s)", m.TeamName, m.FirstName, m.LastName)
	w.line("Overall: %d points, rank %d, %d points this gameweek", m.OverallPoints, m.OverallRank, m.EventPoints)

	if len(c.picks) == 0 {
		w.line("")
		return
	}
	playersByID := make(map[int]fpl.Player, len(c.snapshot.Players))
	for _, p := range c.snapshot.Players {
		playersByID[p.ID] = p
	}
	w.line("Current squad:")
	for _, pick := range c.picks {
		p, ok := playersByID[pick.Element]
		if !ok {
			continue
		}
		marker := ""
		if pick.IsCaptain {
			marker = " (C)"
		} else if pick.IsViceCaptain {
			marker = " (VC)"
		}
		slot := "bench"
		if pick.Position <= 11 {
			slot = "starting"
		}
		w.line("%s%s - %s, £%.1fm, %s", p.WebName, marker, positionName(p.Position), p.CostMillions(), slot)
	}
	w.line("")
}

func (c chatContext) writeHistorySection(w *budgetWriter) {
	if len(c.history) == 0 {
		return
	}
	w.line("Historical gameweek stats for %s:", c.history[0].Name)
	for i, row := range c.history {
		if i >= maxHistoryLines {
			break
		}
		venue := "away"
		if row.WasHome {
			venue = "home"
		}
		w.line("GW%d vs team %d: %d pts, %d goals, %d assists, %d mins (%s)",
			row.Gameweek, row.OpponentTeam, row.TotalPoints, row.GoalsScored, row.Assists, row.Minutes, venue)
	}
	w.line("")
}

// selectInjuryLines caps the injury section at 20 lines while spreading
// coverage across teams: each team contributes at most one injured ("i")
// player and one with any other flag.
func selectInjuryLines(records []fpl.InjuryRecord) []string {
	grouped := fpl.GroupInjuriesByTeam(records)
	teams := make([]string, 0, len(grouped))
	for team := range grouped {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	selected := make([]fpl.InjuryRecord, 0, maxInjuryLines)
	for _, team := range teams {
		var serious, other *fpl.InjuryRecord
		for i := range grouped[team] {
			r := &grouped[team][i]
			if r.Status == fpl.StatusInjured {
				if serious == nil {
					serious = r
				}
			} else if other == nil {
				other = r
			}
		}
		if serious != nil {
			selected = append(selected, *serious)
		}
		if other != nil {
			selected = append(selected, *other)
		}
	}
	if len(selected) > maxInjuryLines {
		selected = selected[:maxInjuryLines]
	}

	lines := make([]string, 0, len(selected))
	for _, r := range selected {
		line := fmt.Sprintf("%s (%s) - %s", r.WebName, r.TeamName, statusLabel(r.Status))
		if news := strings.TrimSpace(r.News); news != "" {
			line += ": " + news
		}
		if r.ChanceOfPlaying != nil {
			line += fmt.Sprintf(" [%d%% chance of playing]", *r.ChanceOfPlaying)
		}
		lines = append(lines, line)
	}
	return lines
}

// findHistoryName picks the stored player name to look up for a question:
// the longest stored name contained in the message, case-insensitive.
func findHistoryName(message string, names []string) string {
	lowered := strings.ToLower(message)
	best := ""
	for _, name := range names {
		candidate := strings.TrimSpace(name)
		if candidate == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(candidate)) && len(candidate) > len(best) {
			best = candidate
		}
	}
	return best
}

func statusLabel(status string) string {
	switch status {
	case fpl.StatusInjured:
		return "injured"
	case fpl.StatusDoubtful:
		return "doubtful"
	case fpl.StatusSuspended:
		return "suspended"
	case fpl.StatusNotAvailable:
		return "unavailable"
	default:
		return "flagged"
	}
}

func positionName(position int) string {
	if name, ok := positionNames[position]; ok {
		return name
	}
	return "UNK"
}

func teamOrUnknown(team fpl.Team) string {
	if team.Name == "" {
		return "Unknown"
	}
	return team.Name
}

// budgetWriter appends lines until the approximate word budget is exhausted,
// then silently drops the rest.
type budgetWriter struct {
	buf    *bytebufferpool.ByteBuffer
	budget int
	words  int
}

func (w *budgetWriter) line(format string, args ...any) {
	if w.words >= w.budget {
		return
	}
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	w.words += len(strings.Fields(text))
	_, _ = w.buf.WriteString(text)
	_, _ = w.buf.WriteString("\n")
}
