package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	apptrade "questforge/internal/app/trade"
	"questforge/internal/config"
	"questforge/internal/ledger"
	"questforge/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func NewRouter(st *store.Store, cfg config.ServerConfig, eng Engine) *chi.Mux {
	sessionHandlers := NewSessionHandlers(eng)
	worldHandlers := NewWorldHandlers(st, ledger.New(st), cfg.CampaignID)
	tradeHandlers := NewTradeHandlers(apptrade.NewService(st, cfg.CampaignID))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", worldHandlers.Health())

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())

		r.Post("/sessions", sessionHandlers.Create())
		r.Get("/sessions/{session_id}", sessionHandlers.Get())
		r.Delete("/sessions/{session_id}", sessionHandlers.Abort())
		r.Post("/sessions/{session_id}/message", sessionHandlers.Message())
		r.Post("/sessions/{session_id}/pause", sessionHandlers.Pause())
		r.Post("/sessions/{session_id}/resume", sessionHandlers.Resume())
		r.Post("/sessions/{session_id}/end", sessionHandlers.End())
		r.Post("/sessions/{session_id}/claim", sessionHandlers.Claim())

		r.Get("/characters/{character_id}", worldHandlers.Character())
		r.Get("/characters/{character_id}/inventory", worldHandlers.CharacterInventory())
		r.Get("/characters/{character_id}/ledger", worldHandlers.CharacterLedger())
		r.Get("/merchants", worldHandlers.Merchants())
		r.Get("/merchants/{merchant_id}/stock", worldHandlers.MerchantStock())

		r.Post("/trade/buy", tradeHandlers.Buy())
		r.Post("/trade/sell", tradeHandlers.Sell())

		r.Get("/debug/vars", expvar.Handler().ServeHTTP)
	})

	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
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
