package main

import (
	"context"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"questforge/internal/config"
	"questforge/internal/engine"
	"questforge/internal/logging"
	"questforge/internal/provider"
	"questforge/internal/store"
	httptransport "questforge/internal/transport/http"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	st, err := store.New(cfg.Server.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()
	if err := st.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}

	if cfg.Server.SeedDemoCharacter {
		seedDemoCharacter(st, cfg.Server.CampaignID)
	}

	gw, err := buildGateway(cfg.Provider)
	if err != nil {
		log.Fatal().Err(err).Msg("provider gateway init failed")
	}

	eng := engine.New(st, gw, time.Duration(cfg.Server.GenerationTimeoutSecs)*time.Second)

	r := httptransport.NewRouter(st, cfg.Server, eng)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}

func buildGateway(cfg config.ProviderConfig) (*provider.Gateway, error) {
	backends := make([]provider.Backend, 0, 2)
	for _, bc := range cfg.Configured() {
		b, err := provider.NewArkBackend(context.Background(), bc)
		if err != nil {
			log.Warn().Str("backend", bc.Name).Err(err).Msg("backend init failed; skipping")
			continue
		}
		backends = append(backends, b)
		log.Info().Str("backend", bc.Name).Str("model", bc.Model).Msg("generation backend configured")
	}
	if len(backends) == 0 {
		log.Warn().Msg("no generation backend configured; sessions will fail until one is")
	}
	return provider.New(backends...), nil
}

// seedDemoCharacter creates a starter character when the table is empty, so
// a fresh local stack is playable without manual inserts.
func seedDemoCharacter(st *store.Store, campaignID string) {
	ctx := context.Background()
	n, err := st.CountCharacters(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("count characters failed; skipping demo seed")
		return
	}
	if n > 0 {
		return
	}
	id, err := st.CreateCharacter(ctx, &store.Character{
		CampaignID: campaignID,
		Name:       "Wren",
		Class:      "Ranger",
		Level:      1,
		HP:         12,
		MaxHP:      12,
		DexMod:     2,
		PurseCC:    1500,
	})
	if err != nil {
		log.Warn().Err(err).Msg("demo character seed failed")
		return
	}
	log.Info().Str("character_id", id).Msg("demo character seeded")
}
