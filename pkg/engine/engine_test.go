package engine

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/theapemachine/ukg/pkg/types"
)

func TestNew(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		engine, err := New(context.Background(), DefaultConfig())
		So(err, ShouldBeNil)
		defer engine.Close(context.Background())

		Convey("The graph should be seeded from the catalog", func() {
			stats := engine.Graph.Stats()
			So(stats.Nodes, ShouldBeGreaterThan, 13)
			So(stats.ByAxis[1], ShouldBeGreaterThan, 0)
		})

		Convey("The router should answer queries", func() {
			result := engine.Router.ProcessQuery(context.Background(), "What are the GDPR compliance requirements for healthcare data?", nil)
			So(result.Success, ShouldBeTrue)
			So(result.ProcessingLevel, ShouldNotEqual, types.LevelEntry)
		})
	})

	Convey("Given seeding disabled and no snapshot", t, func() {
		cfg := DefaultConfig()
		cfg.Graph.Seed = false

		engine, err := New(context.Background(), cfg)
		So(err, ShouldBeNil)

		Convey("The graph should start empty", func() {
			So(engine.Graph.Len(), ShouldEqual, 0)
		})
	})

	Convey("Given an unknown snapshot backend", t, func() {
		cfg := DefaultConfig()
		cfg.Snapshots.Backend = "tape"

		_, err := New(context.Background(), cfg)

		Convey("It should refuse to start", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestPersist(t *testing.T) {
	Convey("Given an engine backed by a snapshot directory", t, func() {
		cfg := DefaultConfig()
		cfg.Snapshots.Backend = "file"
		cfg.Snapshots.Path = t.TempDir()
		cfg.AutoPersist = true

		ctx := context.Background()
		engine, err := New(ctx, cfg)
		So(err, ShouldBeNil)

		_, err = engine.Graph.AddNode(2, 2, "Fintech", "Financial technology sector", nil)
		So(err, ShouldBeNil)

		result := engine.Router.ProcessQuery(ctx, "What are the GDPR compliance requirements for healthcare data?", map[string]any{"session_id": "s1"})
		So(result.Success, ShouldBeTrue)

		nodes := engine.Graph.Len()
		So(engine.Close(ctx), ShouldBeNil)

		Convey("A new engine should restore instead of seeding", func() {
			restored, err := New(ctx, cfg)
			So(err, ShouldBeNil)

			So(restored.Graph.Len(), ShouldEqual, nodes)
			So(restored.Graph.NodesByLabel("Fintech"), ShouldHaveLength, 1)

			entries, err := restored.Memory.Entries("s1")
			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 1)
		})
	})
}

func TestConfigFromViper(t *testing.T) {
	v := viper.New()
	v.Set("ukg.router.confidenceThreshold", 0.9)
	v.Set("ukg.router.layer3.enabled", false)
	v.Set("ukg.router.layer3.agents", []string{"fact_verification"})
	v.Set("ukg.memory.defaultStream", "global")
	v.Set("ukg.graph.maxSearchHits", 4)
	v.Set("ukg.graph.snapshot.backend", "sqlite")
	v.Set("ukg.graph.snapshot.path", "/tmp/ukg.db")
	v.Set("ukg.s3.bucket", "ukg")

	cfg := ConfigFromViper(v)
	defaults := DefaultConfig()

	assert.Equal(t, 0.9, cfg.Router.ConfidenceThreshold)
	assert.Equal(t, defaults.Router.MonitorThreshold, cfg.Router.MonitorThreshold)
	assert.False(t, cfg.Router.Layer3.Enabled)
	assert.Equal(t, []string{"fact_verification"}, cfg.Router.Layer3.Agents)
	assert.Equal(t, "global", cfg.Memory.DefaultStream)
	assert.Equal(t, 4, cfg.Router.SearchHits)
	assert.Equal(t, "sqlite", cfg.Snapshots.Backend)
	assert.Equal(t, "/tmp/ukg.db", cfg.Snapshots.Path)
	assert.Equal(t, "ukg", cfg.Snapshots.S3.Bucket)
	assert.Equal(t, defaults.Graph, cfg.Graph)
	assert.Equal(t, DefaultConfig(), ConfigFromViper(nil))
}
