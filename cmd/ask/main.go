package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"

	"storyshelf.app/assistant/common/id"
	"storyshelf.app/assistant/common/llm"
	"storyshelf.app/assistant/common/logger"
	"storyshelf.app/assistant/core/config"
	"storyshelf.app/assistant/core/db"
	"storyshelf.app/assistant/internal/brain"
	"storyshelf.app/assistant/internal/model"
	"storyshelf.app/assistant/internal/service"
	"storyshelf.app/assistant/internal/store"
)

func main() {
	showContext := flag.Bool("context", false, "print the assembled library context before each reply")
	plain := flag.Bool("plain", false, "replace LIBRARY_ITEM markers with bare titles")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg)

	if err := id.Init(2); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize id generator: %v\n", err)
		os.Exit(1)
	}

	if !cfg.LLM.Enabled() {
		fmt.Fprintln(os.Stderr, "LLM_API_KEY is required")
		os.Exit(1)
	}

	client, err := llm.New(llm.Config{
		Provider:  cfg.LLM.Provider,
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create LLM client: %v\n", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	// Redis is optional here too
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		if opts, err := redis.ParseURL(cfg.Redis.URL); err == nil {
			redisClient = redis.NewClient(opts)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				fmt.Fprintf(os.Stderr, "Library cache: disabled (%v)\n", err)
				_ = redisClient.Close()
				redisClient = nil
			} else {
				defer redisClient.Close()
				fmt.Fprintln(os.Stderr, "Library cache: connected")
			}
		}
	}

	stores := store.NewStores(database.Querier(), redisClient, cfg.Redis.CacheTTL)
	services := service.NewServices(stores, client, cfg.LLM.MaxTokens)
	orchestrator := services.Orchestrator()
	chat := services.Chat()

	fmt.Fprintf(os.Stderr, "\nLibrary assistant ready (model=%s)\n", client.Model())
	fmt.Fprintln(os.Stderr, "Ask something (or 'quit' to exit, 'reset' to clear history):")

	var history []model.ChatMessage
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		switch input {
		case "quit", "exit", "q":
			fmt.Fprintln(os.Stderr, "Goodbye!")
			return
		case "reset":
			history = nil
			fmt.Fprintln(os.Stderr, "History cleared.")
			continue
		}

		if *showContext {
			libraryContext, err := orchestrator.BuildLibraryContext(ctx, input)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Context error: %v\n", err)
			} else if libraryContext == "" {
				fmt.Fprintln(os.Stderr, "(no library matches)")
			} else {
				fmt.Fprintf(os.Stderr, "\n%s\n---\n", libraryContext)
			}
		}

		turn := append(history, model.ChatMessage{Role: model.RoleUser, Content: input})
		reply, err := chat.Chat(ctx, turn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		history = append(turn, model.ChatMessage{Role: model.RoleAssistant, Content: reply.Response})

		text := reply.Response
		if *plain {
			text, _ = brain.StripReferences(text)
		}
		fmt.Println(text)

		for _, ref := range reply.References {
			fmt.Fprintf(os.Stderr, "  [%s] %s (%s)\n", ref.Type, ref.Title, ref.ID)
		}
		fmt.Println()
	}

	fmt.Fprintln(os.Stderr, "Goodbye!")
}
