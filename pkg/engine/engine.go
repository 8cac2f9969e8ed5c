/*
Package engine assembles the knowledge graph, memory, persona panel,
refinement pipeline and agents into a ready-to-query router.
*/
package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/ukg/pkg/agent"
	"github.com/theapemachine/ukg/pkg/catalog"
	"github.com/theapemachine/ukg/pkg/errors"
	"github.com/theapemachine/ukg/pkg/graph"
	"github.com/theapemachine/ukg/pkg/memory"
	"github.com/theapemachine/ukg/pkg/metrics"
	"github.com/theapemachine/ukg/pkg/persona"
	"github.com/theapemachine/ukg/pkg/refinement"
	"github.com/theapemachine/ukg/pkg/router"
	"github.com/theapemachine/ukg/pkg/stores"
)

/*
Engine owns one instance of every component. Nothing in it is global, so
several engines can live in one process.
*/
type Engine struct {
	cfg       Config
	Registry  *catalog.Registry
	Graph     *graph.Store
	Memory    *memory.Store
	Metrics   *metrics.PipelineMetrics
	Router    *router.Router
	snapshots stores.SnapshotStore
}

/*
New builds an engine. The graph and memory are restored from the snapshot
backend when a snapshot exists; otherwise the graph is seeded from the
catalog when cfg.Graph.Seed is set.
*/
func New(ctx context.Context, cfg Config, opts ...router.Option) (*Engine, error) {
	snapshots, err := stores.Open(ctx, cfg.Snapshots)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}

	registry := catalog.New()

	engine := &Engine{
		cfg:       cfg,
		Registry:  registry,
		Graph:     graph.New(registry),
		Memory:    memory.New(cfg.Memory),
		Metrics:   metrics.NewPipelineMetrics(nil),
		snapshots: snapshots,
	}

	if err := engine.restore(ctx); err != nil {
		engine.close()
		return nil, err
	}

	engine.Router = router.New(cfg.Router, registry, engine.Graph, append([]router.Option{
		router.WithMemory(engine.Memory),
		router.WithPanel(persona.NewPanel(registry)),
		router.WithPipeline(refinement.New()),
		router.WithRoster(agent.NewRoster(
			agent.NewCrossDomainSynthesis(engine.Graph, registry),
			agent.NewFactVerification(engine.Graph),
		)),
		router.WithMetrics(engine.Metrics),
	}, opts...)...)

	stats := engine.Graph.Stats()
	log.Info("engine ready", "nodes", stats.Nodes, "relationships", stats.Relationships, "backend", backendName(cfg.Snapshots))

	return engine, nil
}

func (engine *Engine) restore(ctx context.Context) error {
	err := engine.Graph.Restore(ctx, engine.snapshots, engine.cfg.Graph.Key)

	switch {
	case err == nil:
		log.Info("graph restored", "key", engine.cfg.Graph.Key)
	case errors.Is(err, errors.ErrNotFound):
		if engine.cfg.Graph.Seed {
			seeded, err := graph.Seed(engine.Graph, engine.Registry)
			if err != nil {
				return err
			}

			log.Info("graph seeded", "seed_nodes", len(seeded))
		}
	default:
		return fmt.Errorf("failed to restore graph: %w", err)
	}

	err = engine.Memory.Restore(ctx, engine.snapshots, engine.cfg.MemoryKey)

	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return fmt.Errorf("failed to restore memory: %w", err)
	}

	return nil
}

/*
Persist saves the graph and memory snapshots.
*/
func (engine *Engine) Persist(ctx context.Context) error {
	if err := engine.Graph.Save(ctx, engine.snapshots, engine.cfg.Graph.Key); err != nil {
		return fmt.Errorf("failed to save graph: %w", err)
	}

	if err := engine.Memory.Save(ctx, engine.snapshots, engine.cfg.MemoryKey); err != nil {
		return fmt.Errorf("failed to save memory: %w", err)
	}

	log.Debug("engine persisted", "graph", engine.cfg.Graph.Key, "memory", engine.cfg.MemoryKey)
	return nil
}

/*
Close persists when AutoPersist is set and releases the snapshot backend.
*/
func (engine *Engine) Close(ctx context.Context) error {
	var err error

	if engine.cfg.AutoPersist {
		err = engine.Persist(ctx)
	}

	if cerr := engine.close(); cerr != nil && err == nil {
		err = cerr
	}

	return err
}

func (engine *Engine) close() error {
	if closer, ok := engine.snapshots.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}

func backendName(cfg stores.Config) string {
	if cfg.Backend == "" {
		return "memory"
	}

	return cfg.Backend
}
