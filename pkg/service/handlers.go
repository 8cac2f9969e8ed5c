package service

import (
	"github.com/gofiber/fiber/v3"
	"github.com/theapemachine/ukg/pkg/errors"
	"github.com/theapemachine/ukg/pkg/graph"
	"github.com/theapemachine/ukg/pkg/memory"
	"github.com/theapemachine/ukg/pkg/types"
)

type QueryRequest struct {
	Query   string         `json:"query" validate:"required"`
	Context map[string]any `json:"context"`
}

type NodeRequest struct {
	Axis        int            `json:"axis" validate:"required,min=1,max=13"`
	Level       int            `json:"level" validate:"required,min=1"`
	Label       string         `json:"label" validate:"required"`
	Description string         `json:"description"`
	Attributes  map[string]any `json:"attributes"`
}

type RelationshipRequest struct {
	Source     string         `json:"source" validate:"required"`
	Target     string         `json:"target" validate:"required"`
	Type       string         `json:"type"`
	Weight     *float64       `json:"weight" validate:"omitempty,min=0,max=1"`
	Attributes map[string]any `json:"attributes"`
}

type DomainPersonaRequest struct {
	Domain   string   `json:"domain" validate:"required"`
	Role     string   `json:"role" validate:"required,oneof=knowledge sector regulatory compliance"`
	Keywords []string `json:"keywords"`
}

func (srv *Server) handleQuery(c fiber.Ctx) error {
	var req QueryRequest

	if err := srv.bind(c, &req); err != nil {
		return err
	}

	result := srv.engine.Router.ProcessQuery(c, req.Query, req.Context)

	status := fiber.StatusOK
	if !result.Success {
		status = StatusFor(result.Code)
	}

	return c.Status(status).JSON(result)
}

func (srv *Server) handleRecent(c fiber.Ctx) error {
	n, err := queryInt(c, "n", 10)
	if err != nil {
		return err
	}

	records := srv.engine.Router.Recent(n)
	out := make([]types.QueryResult, 0, len(records))

	for _, record := range records {
		out = append(out, record.Result)
	}

	return c.JSON(out)
}

func (srv *Server) handleGraphStats(c fiber.Ctx) error {
	return c.JSON(srv.engine.Graph.Stats())
}

func (srv *Server) handleGraphSearch(c fiber.Ctx) error {
	text := c.Query("q")
	if text == "" {
		return errors.ErrInvalidQuery.WithMessagef("q is required")
	}

	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return err
	}

	axis, err := queryInt(c, "axis", 0)
	if err != nil {
		return err
	}

	var axes []int
	if axis != 0 {
		axes = append(axes, axis)
	}

	hits := srv.engine.Graph.SearchTerms(text, limit, axes...)
	if hits == nil {
		hits = []graph.Hit{}
	}

	return c.JSON(hits)
}

func (srv *Server) handleNode(c fiber.Ctx) error {
	node, err := srv.engine.Graph.Node(c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(node)
}

func (srv *Server) handleNeighborhood(c fiber.Ctx) error {
	depth, err := queryInt(c, "depth", 1)
	if err != nil {
		return err
	}

	sub, err := srv.engine.Graph.Neighborhood(c.Params("id"), depth)
	if err != nil {
		return err
	}

	return c.JSON(sub)
}

/*
maxPathDepth bounds path enumeration, which grows exponentially with depth.
*/
const maxPathDepth = 6

func (srv *Server) handlePaths(c fiber.Ctx) error {
	source, target := c.Query("source"), c.Query("target")
	if source == "" || target == "" {
		return errors.ErrInvalidQuery.WithMessagef("source and target are required")
	}

	depth, err := queryInt(c, "depth", 3)
	if err != nil {
		return err
	}

	if depth < 1 || depth > maxPathDepth {
		return errors.ErrInvalidQuery.WithMessagef("depth must be between 1 and %d, got %d", maxPathDepth, depth)
	}

	paths, err := srv.engine.Graph.FindPaths(source, target, depth)
	if err != nil {
		return err
	}

	if paths == nil {
		paths = []graph.Path{}
	}

	return c.JSON(paths)
}

func (srv *Server) handleAddNode(c fiber.Ctx) error {
	var req NodeRequest

	if err := srv.bind(c, &req); err != nil {
		return err
	}

	id, err := srv.engine.Graph.AddNode(req.Axis, req.Level, req.Label, req.Description, req.Attributes)
	if err != nil {
		return err
	}

	node, err := srv.engine.Graph.Node(id)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(node)
}

func (srv *Server) handleAddRelationship(c fiber.Ctx) error {
	var req RelationshipRequest

	if err := srv.bind(c, &req); err != nil {
		return err
	}

	weight := graph.DefaultWeight
	if req.Weight != nil {
		weight = *req.Weight
	}

	id, err := srv.engine.Graph.AddRelationship(req.Source, req.Target, req.Type, weight, req.Attributes)
	if err != nil {
		return err
	}

	rel, err := srv.engine.Graph.Relationship(id)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(rel)
}

func (srv *Server) handlePersonas(c fiber.Ctx) error {
	return c.JSON(srv.engine.Registry.Profiles())
}

func (srv *Server) handleDomainPersona(c fiber.Ctx) error {
	var req DomainPersonaRequest

	if err := srv.bind(c, &req); err != nil {
		return err
	}

	profile, err := srv.engine.Registry.CreateDomainPersona(req.Domain, types.Role(req.Role), req.Keywords)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(profile)
}

func (srv *Server) handleRecall(c fiber.Ctx) error {
	text := c.Query("q")
	if text == "" {
		return errors.ErrInvalidQuery.WithMessagef("q is required")
	}

	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return err
	}

	opts := memory.RetrieveOptions{Limit: limit}
	if stream := c.Query("stream"); stream != "" {
		opts.Streams = []string{stream}
	}

	return c.JSON(srv.engine.Memory.Retrieve(text, opts))
}

func (srv *Server) handleStreams(c fiber.Ctx) error {
	return c.JSON(srv.engine.Memory.Streams())
}
