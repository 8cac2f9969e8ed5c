package router

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/theapemachine/ukg/pkg/agent"
	"github.com/theapemachine/ukg/pkg/catalog"
	"github.com/theapemachine/ukg/pkg/errors"
	"github.com/theapemachine/ukg/pkg/graph"
	"github.com/theapemachine/ukg/pkg/memory"
	"github.com/theapemachine/ukg/pkg/metrics"
	"github.com/theapemachine/ukg/pkg/persona"
	"github.com/theapemachine/ukg/pkg/refinement"
	"github.com/theapemachine/ukg/pkg/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/theapemachine/ukg/pkg/router"

/*
Router moves a query through the three layers: entry validation, knowledge
simulation, and agent escalation. Every stage failure, including a panic, is
recovered at the stage boundary and returned as a failed QueryResult.
*/
type Router struct {
	cfg      Config
	registry *catalog.Registry
	graph    *graph.Store
	memory   *memory.Store
	panel    *persona.Panel
	pipeline *refinement.Pipeline
	roster   *agent.Roster
	metrics  *metrics.PipelineMetrics
	tracer   trace.Tracer
	history  *history
}

/*
Option configures optional collaborators of a Router.
*/
type Option func(*Router)

func WithMemory(store *memory.Store) Option {
	return func(router *Router) { router.memory = store }
}

func WithPanel(panel *persona.Panel) Option {
	return func(router *Router) { router.panel = panel }
}

func WithPipeline(pipeline *refinement.Pipeline) Option {
	return func(router *Router) { router.pipeline = pipeline }
}

/*
WithRoster sets the Layer-3 agents. Without a roster queries never escalate.
*/
func WithRoster(roster *agent.Roster) Option {
	return func(router *Router) { router.roster = roster }
}

func WithMetrics(m *metrics.PipelineMetrics) Option {
	return func(router *Router) { router.metrics = m }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(router *Router) { router.tracer = tracer }
}

/*
New builds a router over a registry and a graph. The panel, pipeline and
metrics default to fresh instances; the roster defaults to the two built-in
agents.
*/
func New(cfg Config, registry *catalog.Registry, store *graph.Store, opts ...Option) *Router {
	cfg = cfg.withDefaults()

	router := &Router{
		cfg:      cfg,
		registry: registry,
		graph:    store,
		history:  newHistory(cfg.HistorySize),
	}

	for _, opt := range opts {
		opt(router)
	}

	if router.panel == nil {
		router.panel = persona.NewPanel(registry)
	}

	if router.pipeline == nil {
		router.pipeline = refinement.New()
	}

	if router.roster == nil {
		router.roster = agent.NewRoster(
			agent.NewCrossDomainSynthesis(store, registry),
			agent.NewFactVerification(store),
		)
	}

	if router.metrics == nil {
		router.metrics = metrics.NewPipelineMetrics(nil)
	}

	if router.tracer == nil {
		router.tracer = otel.Tracer(tracerName)
	}

	return router
}

func (router *Router) Config() Config {
	return router.cfg
}

func (router *Router) Metrics() *metrics.PipelineMetrics {
	return router.metrics
}

/*
Recent returns up to n processed queries, newest first. n below one returns
the whole ring.
*/
func (router *Router) Recent(n int) []Record {
	return router.history.recent(n)
}

/*
ProcessPayload accepts an untyped payload, as decoded from JSON, with the
query under "query" and an optional "context" object.
*/
func (router *Router) ProcessPayload(ctx context.Context, payload map[string]any) types.QueryResult {
	raw, present := payload["query"]
	text, ok := raw.(string)

	if !present || !ok {
		start := time.Now()
		err := errors.ErrInvalidQuery.WithMessagef("query must be a string, got %T", raw)
		result := types.Failed(uuid.NewString(), types.LevelEntry, err)
		router.finish(start, "", result, nil)
		return result
	}

	qctx, _ := payload["context"].(map[string]any)
	return router.ProcessQuery(ctx, text, qctx)
}

/*
ProcessQuery runs text through the layers and always returns a well-formed
result. Failed results carry zero confidence and the error message.
*/
func (router *Router) ProcessQuery(ctx context.Context, text string, qctx map[string]any) types.QueryResult {
	start := time.Now()
	queryID := uuid.NewString()

	ctx, span := router.tracer.Start(ctx, "router.ProcessQuery", trace.WithAttributes(
		attribute.String("query.id", queryID),
	))
	defer span.End()

	result, state := router.process(ctx, queryID, text, qctx)

	span.SetAttributes(
		attribute.String("query.level", string(result.ProcessingLevel)),
		attribute.Float64("query.confidence", result.Confidence),
		attribute.Bool("query.success", result.Success),
	)

	if !result.Success {
		span.SetStatus(codes.Error, result.Error)
	}

	return router.finish(start, text, result, state)
}

func (router *Router) process(ctx context.Context, queryID, text string, qctx map[string]any) (types.QueryResult, *types.QueryState) {
	var simulate bool

	if err := router.stage(ctx, "layer1", func(ctx context.Context) error {
		if err := router.validate(text); err != nil {
			return err
		}

		simulate = router.RequiresSimulation(text)
		return nil
	}); err != nil {
		return types.Failed(queryID, types.LevelEntry, err), nil
	}

	log.Info("query accepted", "query", queryID, "simulate", simulate)

	if !simulate {
		return router.entryResult(queryID, text), nil
	}

	state := types.NewQueryState(text, qctx, router.cfg.MaxPasses)
	state.ID = queryID

	fail := func(level types.ProcessingLevel, err error) (types.QueryResult, *types.QueryState) {
		if terr := state.Transition(types.StatusFailed); terr != nil {
			log.Warn("state transition failed", "query", queryID, "error", terr)
		}

		return types.Failed(queryID, level, err), state
	}

	if err := state.Transition(types.StatusProcessing); err != nil {
		return fail(types.LevelSimulation, err)
	}

	var layer2 types.LayerResult

	if err := router.stage(ctx, "layer2", func(ctx context.Context) (err error) {
		layer2, err = router.simulate(ctx, state)
		return err
	}); err != nil {
		return fail(types.LevelSimulation, err)
	}

	result := types.QueryResult{
		QueryID:         queryID,
		Response:        layer2.Response,
		Confidence:      layer2.Confidence,
		ActivePersonas:  layer2.Participants,
		ProcessingLevel: types.LevelSimulation,
		Success:         true,
		Layers:          []types.LayerResult{layer2},
	}

	if router.escalates(layer2.Confidence) {
		log.Info("escalating query", "query", queryID, "confidence", layer2.Confidence, "threshold", router.cfg.ConfidenceThreshold)
		router.metrics.RecordEscalation()

		if err := router.stage(ctx, "layer3", func(ctx context.Context) error {
			return router.escalate(ctx, state, layer2, &result)
		}); err != nil {
			return fail(types.LevelEscalation, err)
		}
	}

	if err := state.Transition(types.StatusCompleted); err != nil {
		return fail(result.ProcessingLevel, err)
	}

	result.Status = types.StatusCompleted
	return result, state
}

/*
stage runs fn as one traced, timed stage. Context errors, panics and untyped
errors come back as ErrStageFailure; typed errors are returned unchanged.
*/
func (router *Router) stage(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	if cerr := ctx.Err(); cerr != nil {
		return errors.ErrStageFailure.WithMessagef("%s not started: %v", name, cerr).Wrap(cerr)
	}

	ctx, span := router.tracer.Start(ctx, "router."+name)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = errors.ErrStageFailure.WithMessagef("%s panicked: %v", name, r)
		}

		if err != nil && errors.Code(err) == 0 {
			err = errors.ErrStageFailure.WithMessagef("%s failed: %v", name, err).Wrap(err)
		}

		router.metrics.RecordStage(name, time.Since(start), err != nil)

		if err != nil {
			log.Warn("stage failed", "stage", name, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()
	}()

	return fn(ctx)
}

func (router *Router) finish(start time.Time, text string, result types.QueryResult, state *types.QueryState) types.QueryResult {
	result.Duration = time.Since(start)

	if result.Status == "" {
		result.Status = types.StatusFailed
	}

	if result.ActivePersonas == nil {
		result.ActivePersonas = []string{}
	}

	router.metrics.RecordQuery(string(result.ProcessingLevel), string(result.Status), result.Confidence, result.Duration)

	if result.Success && state != nil {
		router.remember(state, result)
	}

	router.history.add(Record{Query: text, Result: result, State: state})

	log.Info(
		"query finished",
		"query", result.QueryID,
		"level", result.ProcessingLevel,
		"status", result.Status,
		"confidence", fmt.Sprintf("%.3f", result.Confidence),
		"duration", result.Duration,
	)

	return result
}
