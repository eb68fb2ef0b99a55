package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ajmckee/fpl-assistant/internal/domain/fpl"
	"github.com/ajmckee/fpl-assistant/internal/domain/history"
	"github.com/ajmckee/fpl-assistant/internal/platform/logging"
	"github.com/ajmckee/fpl-assistant/internal/platform/plaintext"
)

const systemPreamble = "You are an expert Fantasy Premier League (FPL) AI assistant. " +
	"Answer using the provided context about fixtures, injuries, form and the manager's squad. " +
	"Be concrete and concise. When the context does not cover a question, say so instead of guessing."

// ManagerClient fetches one manager's entry and squad on demand.
type ManagerClient interface {
	FetchEntry(ctx context.Context, entryID int) (fpl.ManagerProfile, error)
	FetchEntryPicks(ctx context.Context, entryID, gameweek int) ([]fpl.Pick, error)
}

// TextGenerator is the LLM boundary.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type ChatServiceConfig struct {
	Snapshots SnapshotProvider
	Generator TextGenerator
	Managers  ManagerClient
	// History is optional. Chat works without a local stats store.
	History history.Repository
	Logger  *logging.Logger
}

type ChatService struct {
	snapshots SnapshotProvider
	generator TextGenerator
	managers  ManagerClient
	history   history.Repository
	logger    *logging.Logger
}

func NewChatService(cfg ChatServiceConfig) *ChatService {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatService{
		snapshots: cfg.Snapshots,
		generator: cfg.Generator,
		managers:  cfg.Managers,
		history:   cfg.History,
		logger:    logger,
	}
}

// Chat answers one question grounded in the live snapshot. teamID > 0 adds
// the manager's profile and squad to the context; the manager and history
// lookups degrade silently so a provider hiccup never blocks an answer.
func (s *ChatService) Chat(ctx context.Context, message string, teamID int) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message must not be empty", ErrInvalidInput)
	}
	if teamID < 0 {
		return "", fmt.Errorf("%w: team id must not be negative", ErrInvalidInput)
	}

	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	chatCtx := chatContext{snapshot: snap}
	if teamID > 0 {
		chatCtx.manager, chatCtx.picks = s.lookupManager(ctx, snap, teamID)
	}
	chatCtx.history = s.lookupHistory(ctx, message)

	prompt := chatCtx.render() + "\n\nQuestion: " + message
	reply, err := s.generator.Generate(ctx, systemPreamble, prompt)
	if err != nil {
		if errors.Is(err, ErrGenerationFailed) || errors.Is(err, ErrInvalidInput) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	return plaintext.Flatten(reply), nil
}

func (s *ChatService) lookupManager(ctx context.Context, snap *fpl.Snapshot, teamID int) (*fpl.ManagerProfile, []fpl.Pick) {
	if s.managers == nil {
		return nil, nil
	}

	profile, err := s.managers.FetchEntry(ctx, teamID)
	if err != nil {
		s.logger.WarnContext(ctx, "manager lookup failed, continuing without manager context",
			"team_id", teamID, "error", err)
		return nil, nil
	}

	gameweek := profile.CurrentEvent
	if gameweek <= 0 {
		if current, ok := snap.CurrentGameweek(); ok {
			gameweek = current.ID
		}
	}
	if gameweek <= 0 {
		return &profile, nil
	}

	picks, err := s.managers.FetchEntryPicks(ctx, teamID, gameweek)
	if err != nil {
		s.logger.WarnContext(ctx, "manager picks lookup failed, continuing without squad",
			"team_id", teamID, "gameweek", gameweek, "error", err)
		return &profile, nil
	}
	return &profile, picks
}

func (s *ChatService) lookupHistory(ctx context.Context, message string) []history.GameweekStat {
	if s.history == nil {
		return nil
	}

	names, err := s.history.DistinctNames(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "history names lookup failed, continuing without history", "error", err)
		return nil
	}
	name := findHistoryName(message, names)
	if name == "" {
		return nil
	}

	rows, err := s.history.RecentByName(ctx, name, maxHistoryLines)
	if err != nil {
		s.logger.WarnContext(ctx, "history stats lookup failed, continuing without history",
			"player_name", name, "error", err)
		return nil
	}
	return rows
}
