package main

import (
	"fmt"

	"github.com/custodia-labs/coursemate/internal/adapters/driven/ai"
	"github.com/custodia-labs/coursemate/internal/adapters/driven/config/file"
	"github.com/custodia-labs/coursemate/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/coursemate/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/coursemate/internal/adapters/driving/cli"
	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
	"github.com/custodia-labs/coursemate/internal/core/services"
	"github.com/custodia-labs/coursemate/internal/coursedoc"
	"github.com/custodia-labs/coursemate/internal/logger"
)

// storage is the part of the graph that differs between a persistent and
// an ephemeral run.
type storage struct {
	catalog  driven.VectorCollection
	content  driven.VectorCollection
	sessions driven.SessionStore
	close    func() error
}

// buildServices is the composition root.
func buildServices(opts cli.Options) (*cli.Services, error) {
	var configStore driven.ConfigStore
	configStore, err := file.NewConfigStore("")
	if err != nil {
		// Defaults and environment keys still apply; changes last for this run only.
		logger.Warn("Config file unavailable, settings will not persist: %v", err)
		configStore = memory.NewConfigStore()
	}
	settingsSvc := services.NewSettingsService(configStore, ai.NewConfigValidator(ai.DefaultPingTimeout))

	out := &cli.Services{
		Settings: settingsSvc,
		Close:    func() error { return nil },
	}
	if opts.Needs == cli.NeedSettings {
		return out, nil
	}

	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	aiSvc, err := ai.NewServices(settings, opts.Needs == cli.NeedLLM)
	if err != nil {
		return nil, err
	}

	store, err := openStorage(opts, settings.RAG.MaxHistory)
	if err != nil {
		aiSvc.Close()
		return nil, err
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		// Built-in prompts still work without a prompt directory.
		logger.Warn("Prompt directory unavailable: %v", err)
		prompts = nil
	}

	assembleServices(out, settings, aiSvc, store, prompts)
	out.Close = func() error {
		aiSvc.Close()
		return store.close()
	}
	return out, nil
}

// assembleServices wires the core services over already opened adapters.
func assembleServices(
	out *cli.Services,
	settings *domain.AppSettings,
	aiSvc *ai.Services,
	store *storage,
	prompts *file.PromptStore,
) {
	index := services.NewVectorStore(store.catalog, store.content, aiSvc.Embedding,
		services.WithMaxResults(settings.RAG.MaxResults),
		services.WithMaxResolveDistance(settings.RAG.MaxResolveDistance),
	)

	parser := coursedoc.NewParser(coursedoc.WithChunking(settings.RAG.ChunkSize, settings.RAG.ChunkOverlap))

	var generator *services.ResponseGenerator
	if aiSvc.LLM != nil {
		generator = services.NewResponseGenerator(aiSvc.LLM,
			services.WithMaxToolRounds(settings.RAG.MaxToolRounds),
			services.WithMaxTokens(settings.LLM.MaxTokens),
			services.WithTemperature(settings.LLM.Temperature),
		)
	}

	rag := services.NewRAGService(index,
		generator,
		services.NewToolManager(services.NewCourseSearchTool(index), services.NewCourseOutlineTool(index)),
		store.sessions,
	)
	if prompts != nil {
		rag.SetPromptStore(prompts)
		if generator != nil {
			generator.SetPromptStore(prompts)
		}
	}

	out.Query = rag
	out.Search = index
	out.Ingest = services.NewIngestService(index, parser)
	// MCP clients run tools directly, so they get a registry whose
	// sources are not shared with the RAG service.
	out.Tools = services.NewToolManager(services.NewCourseSearchTool(index), services.NewCourseOutlineTool(index))
	out.Extensions = parser.SupportedExtensions()
}

func openStorage(opts cli.Options, maxHistory int) (*storage, error) {
	if opts.Ephemeral {
		return &storage{
			catalog:  memory.NewCollection(driven.CollectionCatalog),
			content:  memory.NewCollection(driven.CollectionContent),
			sessions: memory.NewSessionStore(maxHistory),
			close:    func() error { return nil },
		}, nil
	}

	db, err := sqlite.NewStore(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	logger.Debug("Using database %s", db.Path())
	return &storage{
		catalog:  db.Collection(driven.CollectionCatalog),
		content:  db.Collection(driven.CollectionContent),
		sessions: db.SessionStore(maxHistory),
		close:    db.Close,
	}, nil
}
