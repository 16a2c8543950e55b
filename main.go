package main

import (
	"strings"

	"github.com/rs/zerolog/log"

	handlersx "github.com/tanpawarit/servicedesk/agent/agents/handlers"
	routerx "github.com/tanpawarit/servicedesk/agent/agents/router"
	"github.com/tanpawarit/servicedesk/agent/classify"
	contractx "github.com/tanpawarit/servicedesk/agent/contract"
	llmx "github.com/tanpawarit/servicedesk/agent/llm"
	statex "github.com/tanpawarit/servicedesk/agent/state"
	storex "github.com/tanpawarit/servicedesk/agent/store"
	"github.com/tanpawarit/servicedesk/agent/tool"
	configx "github.com/tanpawarit/servicedesk/pkg/config"
	_ "github.com/tanpawarit/servicedesk/pkg/logger/autoload"
	openrouterx "github.com/tanpawarit/servicedesk/pkg/openrouter"
	serverx "github.com/tanpawarit/servicedesk/server"
)

type StoreConfig struct {
	TicketsPath   string `envconfig:"TICKETS_PATH" split_words:"true" default:"data/tickets.json"`
	InventoryPath string `envconfig:"INVENTORY_PATH" split_words:"true" default:"data/inventory.json"`
}

type SessionConfig struct {
	Backend  string `envconfig:"BACKEND" split_words:"true" default:"memory"`
	Capacity int    `envconfig:"CAPACITY" split_words:"true" default:"1024"`
}

func main() {
	storeCfg := configx.MustNew[StoreConfig]("STORE")
	sessionCfg := configx.MustNew[SessionConfig]("SESSION")
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	serverCfg := configx.MustNew[serverx.Config]("SERVER")

	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid llm config")
	}

	tickets, err := storex.OpenTicketStore(storeCfg.TicketsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", storeCfg.TicketsPath).Msg("open ticket store")
	}
	inventory, err := storex.OpenInventoryIndex(storeCfg.InventoryPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", storeCfg.InventoryPath).Msg("open inventory index")
	}
	log.Info().Int("tickets", tickets.Len()).Int("inventory", inventory.Len()).Msg("stores loaded")

	sessions := newSessionStore(*sessionCfg)

	gateway, err := tool.NewRegistry(tickets, inventory)
	if err != nil {
		log.Fatal().Err(err).Msg("build tool registry")
	}
	registry, err := handlersx.NewRegistry(gateway)
	if err != nil {
		log.Fatal().Err(err).Msg("build handler registry")
	}

	var remote contractx.Classifier
	if llmCfg.Enabled() {
		client := openrouterx.NewClient(llmCfg.OpenRouter())
		if client == nil {
			log.Fatal().Msg("failed to initialize openrouter client")
		}
		remote, err = classify.NewRemoteClassifier(client, llmCfg.Model)
		if err != nil {
			log.Fatal().Err(err).Msg("build remote classifier")
		}
		log.Info().Str("model", llmCfg.Model).Msg("remote classifier enabled")
	} else {
		log.Warn().Msg("no api key configured, running on the rule classifier only")
	}

	router, err := routerx.New(sessions, remote, classify.NewRuleClassifier(), registry)
	if err != nil {
		log.Fatal().Err(err).Msg("build router")
	}

	engine := serverx.New(*serverCfg, router)
	log.Info().Str("addr", serverCfg.Addr).Msg("listening")
	if err := engine.Run(serverCfg.Addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func newSessionStore(cfg SessionConfig) statex.Store {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "upstash":
		redisCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		store, err := statex.NewUpstashRedisStore(*redisCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("build upstash session store")
		}
		return store
	default:
		store, err := statex.NewMemoryStore(cfg.Capacity)
		if err != nil {
			log.Fatal().Err(err).Msg("build memory session store")
		}
		return store
	}
}
