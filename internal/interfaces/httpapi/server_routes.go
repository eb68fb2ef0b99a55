package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/chat", handler.Chat)
	mux.HandleFunc("GET /v1/chips/recommendations", handler.ChipRecommendations)
	mux.HandleFunc("GET /v1/players/recommended", handler.RecommendedPlayers)
	mux.HandleFunc("GET /v1/injuries", handler.Injuries)
	mux.HandleFunc("GET /v1/teams/{teamID}", handler.GetTeam)
	mux.HandleFunc("GET /v1/gameweeks", handler.ListGameweeks)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/refresh", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRefreshJob)))
}
