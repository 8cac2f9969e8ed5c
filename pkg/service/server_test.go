package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/ukg/pkg/auth"
	"github.com/theapemachine/ukg/pkg/engine"
	"github.com/theapemachine/ukg/pkg/graph"
	"github.com/theapemachine/ukg/pkg/types"
)

func newTestServer(authSvc *auth.Service) *Server {
	eng, err := engine.New(context.Background(), engine.DefaultConfig())
	if err != nil {
		panic(err)
	}

	return NewServer(DefaultConfig(), eng, authSvc)
}

func do(srv *Server, method, target, body string, header ...string) (int, []byte) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}

	resp, err := srv.App().Test(req)
	So(err, ShouldBeNil)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	So(err, ShouldBeNil)

	return resp.StatusCode, data
}

func TestQueryRoutes(t *testing.T) {
	Convey("Given an API server", t, func() {
		srv := newTestServer(nil)

		Convey("When a simulated query is posted", func() {
			status, body := do(srv, http.MethodPost, "/v1/query",
				`{"query":"What are the key considerations for implementing a data governance program?","context":{"domain":"technology"}}`)

			var result types.QueryResult
			So(json.Unmarshal(body, &result), ShouldBeNil)

			Convey("Then the result is returned", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(result.Success, ShouldBeTrue)
				So(result.Response, ShouldContainSubstring, "### Knowledge Expert")
			})

			Convey("Then it shows up in the recent queries", func() {
				status, body := do(srv, http.MethodGet, "/v1/queries/recent?n=1", "")
				var recent []types.QueryResult

				So(status, ShouldEqual, http.StatusOK)
				So(json.Unmarshal(body, &recent), ShouldBeNil)
				So(recent, ShouldHaveLength, 1)
				So(recent[0].QueryID, ShouldEqual, result.QueryID)
			})

			Convey("Then it is counted in the metrics", func() {
				status, body := do(srv, http.MethodGet, "/metrics", "")
				So(status, ShouldEqual, http.StatusOK)
				So(string(body), ShouldContainSubstring, "ukg_queries_total")
			})

			Convey("Then the answer can be recalled from memory", func() {
				status, body := do(srv, http.MethodGet, "/v1/memory/recall?q=data+governance+program", "")
				So(status, ShouldEqual, http.StatusOK)
				So(string(body), ShouldContainSubstring, "data governance")
			})
		})

		Convey("When the query is missing", func() {
			status, body := do(srv, http.MethodPost, "/v1/query", `{"query":""}`)

			Convey("Then the request is rejected", func() {
				So(status, ShouldEqual, http.StatusBadRequest)
				So(string(body), ShouldContainSubstring, "query is required")
			})
		})

		Convey("When the query is only whitespace", func() {
			status, _ := do(srv, http.MethodPost, "/v1/query", `{"query":"   "}`)

			Convey("Then the router rejects it at layer one", func() {
				So(status, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("The health check should report the graph", func() {
			status, body := do(srv, http.MethodGet, "/health", "")
			So(status, ShouldEqual, http.StatusOK)
			So(string(body), ShouldContainSubstring, `"status":"ok"`)
		})
	})
}

func TestGraphRoutes(t *testing.T) {
	Convey("Given an API server over the seeded graph", t, func() {
		srv := newTestServer(nil)

		Convey("Searching should find seeded regulations", func() {
			status, body := do(srv, http.MethodGet, "/v1/graph/search?q=gdpr", "")
			var hits []graph.Hit

			So(status, ShouldEqual, http.StatusOK)
			So(json.Unmarshal(body, &hits), ShouldBeNil)
			So(hits, ShouldNotBeEmpty)
			So(hits[0].Node.Label, ShouldEqual, "GDPR")
		})

		Convey("Searching without text is a bad request", func() {
			status, _ := do(srv, http.MethodGet, "/v1/graph/search", "")
			So(status, ShouldEqual, http.StatusBadRequest)
		})

		Convey("An unknown node is not found", func() {
			status, _ := do(srv, http.MethodGet, "/v1/graph/nodes/nope", "")
			So(status, ShouldEqual, http.StatusNotFound)
		})

		Convey("A node on an invalid axis is rejected", func() {
			status, _ := do(srv, http.MethodPost, "/v1/graph/nodes", `{"axis":14,"level":1,"label":"X"}`)
			So(status, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Nodes and relationships can be added and traversed", func() {
			status, body := do(srv, http.MethodPost, "/v1/graph/nodes", `{"axis":2,"level":2,"label":"Fintech"}`)
			So(status, ShouldEqual, http.StatusCreated)

			var a graph.Node
			So(json.Unmarshal(body, &a), ShouldBeNil)

			status, body = do(srv, http.MethodPost, "/v1/graph/nodes", `{"axis":2,"level":3,"label":"Payments"}`)
			So(status, ShouldEqual, http.StatusCreated)

			var b graph.Node
			So(json.Unmarshal(body, &b), ShouldBeNil)

			status, _ = do(srv, http.MethodPost, "/v1/graph/relationships",
				`{"source":"`+a.ID+`","target":"`+b.ID+`","type":"contains","weight":0.8}`)
			So(status, ShouldEqual, http.StatusCreated)

			status, body = do(srv, http.MethodGet, "/v1/graph/paths?source="+a.ID+"&target="+b.ID, "")
			So(status, ShouldEqual, http.StatusOK)

			var paths []graph.Path
			So(json.Unmarshal(body, &paths), ShouldBeNil)
			So(paths, ShouldHaveLength, 1)

			status, body = do(srv, http.MethodGet, "/v1/graph/nodes/"+a.ID+"/neighborhood?depth=1", "")
			So(status, ShouldEqual, http.StatusOK)

			var sub graph.Subgraph
			So(json.Unmarshal(body, &sub), ShouldBeNil)
			So(sub.Nodes, ShouldHaveLength, 2)

			status, body = do(srv, http.MethodGet, "/v1/graph/paths?source="+a.ID+"&target="+b.ID+"&depth=50", "")
			So(status, ShouldEqual, http.StatusBadRequest)
			So(string(body), ShouldContainSubstring, "depth must be between 1 and 6")

			status, _ = do(srv, http.MethodGet, "/v1/graph/paths?source="+a.ID+"&target="+b.ID+"&depth=0", "")
			So(status, ShouldEqual, http.StatusBadRequest)

			status, _ = do(srv, http.MethodGet, "/v1/graph/paths?source="+a.ID+"&target="+b.ID+"&depth=6", "")
			So(status, ShouldEqual, http.StatusOK)
		})

		Convey("A relationship to an unknown node is not found", func() {
			status, _ := do(srv, http.MethodPost, "/v1/graph/relationships", `{"source":"a","target":"b"}`)
			So(status, ShouldEqual, http.StatusNotFound)
		})

		Convey("A relationship weight above one is rejected", func() {
			status, _ := do(srv, http.MethodPost, "/v1/graph/relationships", `{"source":"a","target":"b","weight":1.5}`)
			So(status, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestPersonaRoutes(t *testing.T) {
	Convey("Given an API server", t, func() {
		srv := newTestServer(nil)

		Convey("A domain persona can be created", func() {
			status, body := do(srv, http.MethodPost, "/v1/personas/domain",
				`{"domain":"Healthcare","role":"regulatory","keywords":["hipaa"]}`)

			So(status, ShouldEqual, http.StatusCreated)
			So(string(body), ShouldContainSubstring, `"id":"regulatory-healthcare"`)

			_, body = do(srv, http.MethodGet, "/v1/personas", "")
			So(string(body), ShouldContainSubstring, "regulatory-healthcare")
		})

		Convey("An unknown role is rejected", func() {
			status, _ := do(srv, http.MethodPost, "/v1/personas/domain", `{"domain":"x","role":"oracle"}`)
			So(status, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestAuthenticatedRoutes(t *testing.T) {
	Convey("Given an API server with bearer auth", t, func() {
		authSvc, err := auth.NewService(auth.Config{Secret: "test-secret"})
		So(err, ShouldBeNil)

		srv := newTestServer(authSvc)
		tok, err := authSvc.GenerateToken("tester")
		So(err, ShouldBeNil)

		Convey("Versioned routes require a token", func() {
			status, _ := do(srv, http.MethodGet, "/v1/graph/stats", "")
			So(status, ShouldEqual, http.StatusUnauthorized)

			status, _ = do(srv, http.MethodGet, "/v1/graph/stats", "", "Authorization", "Bearer "+tok.Token)
			So(status, ShouldEqual, http.StatusOK)
		})

		Convey("Health and metrics stay open", func() {
			status, _ := do(srv, http.MethodGet, "/health", "")
			So(status, ShouldEqual, http.StatusOK)

			status, _ = do(srv, http.MethodGet, "/metrics", "")
			So(status, ShouldEqual, http.StatusOK)
		})
	})
}
