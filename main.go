package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nattavee/homecall/agent/llm"
	"github.com/nattavee/homecall/agent/memory"
	nodex "github.com/nattavee/homecall/agent/nodes"
	"github.com/nattavee/homecall/agent/orchestrator"
	"github.com/nattavee/homecall/agent/payment"
	"github.com/nattavee/homecall/agent/search"
	configx "github.com/nattavee/homecall/pkg/config"
	_ "github.com/nattavee/homecall/pkg/logger/autoload"
	openrouterx "github.com/nattavee/homecall/pkg/openrouter"
	tracex "github.com/nattavee/homecall/pkg/trace"
)

type AppConfig struct {
	UserID   string `envconfig:"USER_ID" split_words:"true" default:"demo-user"`
	Category string `envconfig:"CATEGORY" split_words:"true"`
	Location string `envconfig:"LOCATION" split_words:"true"`
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("APP")

	storeCfg := configx.MustNew[memory.Config]("POSTGRES")
	store, err := memory.NewPostgres(*storeCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init postgres store")
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("migrate schema")
	}

	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	model, err := llm.New(openrouterx.MustNew(*openRouterCfg))
	if err != nil {
		log.Fatal().Err(err).Msg("init chat model")
	}

	searchCfg := configx.MustNew[search.Config]("SEARCH")
	searcher, err := search.NewClient(*searchCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init search client")
	}

	o, err := orchestrator.New(
		store,
		store,
		model,
		searcher,
		payment.New(store),
		tracex.NewLogRecorder(),
		orchestrator.Config{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("init orchestrator")
	}

	log.Info().Str("user_id", appCfg.UserID).Msg("dispatch agent ready")

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || text == "exit" {
			break
		}

		out, err := o.HandleMessage(ctx, nodex.GraphInput{
			UserID:   appCfg.UserID,
			Text:     text,
			Category: appCfg.Category,
			Location: appCfg.Location,
		})
		if err != nil {
			log.Error().Err(err).Msg("handle message")
			fmt.Print("> ")
			continue
		}

		fmt.Println(out.Reply)
		if out.Dispatch != nil {
			fmt.Printf("[dispatch %s: %s]\n", out.Dispatch.ID, out.DispatchState)
		}
		fmt.Print("> ")
	}
}
