package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/ajmckee/fpl-assistant/internal/platform/logging"
	"github.com/ajmckee/fpl-assistant/internal/usecase"
)

type Handler struct {
	chatService   *usecase.ChatService
	chipService   *usecase.ChipService
	injuryService *usecase.InjuryService
	teamService   *usecase.TeamService
	snapshots     *usecase.SnapshotService
	logger        *logging.Logger
	validator     *validator.Validate
}

func NewHandler(
	chatService *usecase.ChatService,
	chipService *usecase.ChipService,
	injuryService *usecase.InjuryService,
	teamService *usecase.TeamService,
	snapshots *usecase.SnapshotService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		chatService:   chatService,
		chipService:   chipService,
		injuryService: injuryService,
		teamService:   teamService,
		snapshots:     snapshots,
		logger:        logger,
		validator:     validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Chat")
	defer span.End()

	var req chatRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: malformed request body", usecase.ErrInvalidInput))
		return
	}
	if err := h.validator.StructCtx(ctx, req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	reply, err := h.chatService.Chat(ctx, req.Message, req.TeamID)
	if err != nil {
		h.logger.WarnContext(ctx, "chat failed", "team_id", req.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, chatResponseDTO{Reply: reply})
}

func (h *Handler) ChipRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ChipRecommendations")
	defer span.End()

	limit, err := optionalIntQuery(r, "limit", 0)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	recs, err := h.chipService.Recommendations(ctx, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "chip recommendations failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, chipRecommendationsToDTO(recs))
}

func (h *Handler) RecommendedPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecommendedPlayers")
	defer span.End()

	gameweek, err := optionalIntQuery(r, "gameweek", 0)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	position, err := optionalIntQuery(r, "position", 0)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	limit, err := optionalIntQuery(r, "limit", 0)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	players, err := h.chipService.RecommendedPlayers(ctx, gameweek, position, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "player recommendations failed", "gameweek", gameweek, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playerScoresToDTO(players))
}

func (h *Handler) Injuries(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Injuries")
	defer span.End()

	if parseBoolQuery(r, "groupByTeam") {
		grouped, err := h.injuryService.InjuriesByTeam(ctx)
		if err != nil {
			h.logger.WarnContext(ctx, "grouped injuries failed", "error", err)
			writeError(ctx, w, err)
			return
		}
		out := make(map[string][]injuryRecordDTO, len(grouped))
		for team, records := range grouped {
			out[team] = injuriesToDTO(records)
		}
		writeSuccess(ctx, w, http.StatusOK, out)
		return
	}

	records, err := h.injuryService.Injuries(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "injuries failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, injuriesToDTO(records))
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeam")
	defer span.End()

	teamID, err := strconv.Atoi(strings.TrimSpace(r.PathValue("teamID")))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: team id must be an integer", usecase.ErrInvalidInput))
		return
	}

	detail, err := h.teamService.Team(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get team failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamDetailToDTO(detail))
}

func (h *Handler) ListGameweeks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListGameweeks")
	defer span.End()

	gameweeks, err := h.teamService.Gameweeks(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list gameweeks failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gameweeksToDTO(gameweeks))
}

// RunRefreshJob is the manual cache refresh, wired behind the internal job
// token middleware.
func (h *Handler) RunRefreshJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRefreshJob")
	defer span.End()

	if err := h.snapshots.ForceRefresh(ctx); err != nil {
		h.logger.WarnContext(ctx, "manual refresh failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, map[string]string{"status": "refreshed"})
}

func optionalIntQuery(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", usecase.ErrInvalidInput, key)
	}
	return value, nil
}

func parseBoolQuery(r *http.Request, key string) bool {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	return err == nil && value
}
