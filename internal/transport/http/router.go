package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"scoreboard/internal/award"
	"scoreboard/internal/config"
	"scoreboard/internal/relay"
	"scoreboard/internal/rules"
	"scoreboard/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func NewRouter(st *store.Store, cfg config.ServerConfig, coord *award.Coordinator, tbl *rules.Table, rel *relay.Relay) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", HealthHandler(st, rel))

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())

		r.Get("/public/leaderboard", LeaderboardHandler(coord.Board(), cfg.LeaderboardMaxLimit))
		r.Get("/public/users/{user_id}/rank", RankHandler(coord.Board()))
		r.Get("/public/events", EventsSSEHandler(coord.Events()))

		r.Group(func(r chi.Router) {
			r.Use(UserAuthMiddleware(st))
			r.Post("/awards", AwardsHandler(coord))
		})

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))
			r.Post("/admin/users", UsersCreateHandler(st))
			r.Get("/admin/users/{user_id}/awards", AwardHistoryHandler(st))
			r.Post("/admin/adjustments", AdjustmentsHandler(coord))
			r.Post("/admin/rules/reload", RulesReloadHandler(tbl))
			r.Get("/admin/deadletters", DeadLettersHandler(st, rel))
			r.Get("/admin/debug/vars", expvar.Handler().ServeHTTP)
		})
	})

	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 16)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
