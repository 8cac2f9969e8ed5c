package engine

import (
	"github.com/spf13/viper"
	"github.com/theapemachine/ukg/pkg/memory"
	"github.com/theapemachine/ukg/pkg/router"
	"github.com/theapemachine/ukg/pkg/stores"
	"github.com/theapemachine/ukg/pkg/stores/s3"
)

/*
GraphConfig controls how the graph is populated at startup.
*/
type GraphConfig struct {
	Seed bool
	Key  string
}

/*
Config gathers the settings of every component the engine builds.
*/
type Config struct {
	Router      router.Config
	Memory      memory.Config
	Graph       GraphConfig
	Snapshots   stores.Config
	MemoryKey   string
	AutoPersist bool
}

func DefaultConfig() Config {
	return Config{
		Router:    router.DefaultConfig(),
		Memory:    memory.DefaultConfig(),
		Graph:     GraphConfig{Seed: true, Key: "graph"},
		Snapshots: stores.DefaultConfig(),
		MemoryKey: "memory",
	}
}

/*
ConfigFromViper reads the ukg.* keys. Keys that are not set keep their
defaults.
*/
func ConfigFromViper(v *viper.Viper) Config {
	cfg := DefaultConfig()

	if v == nil {
		return cfg
	}

	setFloat(v, "ukg.router.confidenceThreshold", &cfg.Router.ConfidenceThreshold)
	setFloat(v, "ukg.router.monitorThreshold", &cfg.Router.MonitorThreshold)
	setInt(v, "ukg.router.maxPasses", &cfg.Router.MaxPasses)
	setFloat(v, "ukg.router.minAvgConfidence", &cfg.Router.MinAvgConfidence)
	setInt(v, "ukg.router.historySize", &cfg.Router.HistorySize)
	setInt(v, "ukg.router.simulationWordLimit", &cfg.Router.SimulationWordLimit)
	setInt(v, "ukg.router.maxQueryLength", &cfg.Router.MaxQueryLength)
	setInt(v, "ukg.router.memoryRecall", &cfg.Router.MemoryRecall)

	if v.IsSet("ukg.router.simulationKeywords") {
		cfg.Router.SimulationKeywords = v.GetStringSlice("ukg.router.simulationKeywords")
	}

	setBool(v, "ukg.router.layer3.enabled", &cfg.Router.Layer3.Enabled)
	setInt(v, "ukg.router.layer3.maxReruns", &cfg.Router.Layer3.MaxReruns)

	if v.IsSet("ukg.router.layer3.agents") {
		cfg.Router.Layer3.Agents = v.GetStringSlice("ukg.router.layer3.agents")
	}

	setInt(v, "ukg.memory.workingCapacity", &cfg.Memory.WorkingCapacity)
	setString(v, "ukg.memory.defaultStream", &cfg.Memory.DefaultStream)
	setInt(v, "ukg.memory.retrievalLimit", &cfg.Memory.RetrievalLimit)
	setString(v, "ukg.memory.snapshotKey", &cfg.MemoryKey)

	setBool(v, "ukg.graph.seed", &cfg.Graph.Seed)
	setInt(v, "ukg.graph.searchExpansionDepth", &cfg.Router.ExpansionDepth)
	setInt(v, "ukg.graph.maxSearchHits", &cfg.Router.SearchHits)
	setString(v, "ukg.graph.snapshot.backend", &cfg.Snapshots.Backend)
	setString(v, "ukg.graph.snapshot.path", &cfg.Snapshots.Path)
	setString(v, "ukg.graph.snapshot.key", &cfg.Graph.Key)
	setBool(v, "ukg.graph.snapshot.autoPersist", &cfg.AutoPersist)

	cfg.Snapshots.S3 = s3.Config{
		Endpoint:  v.GetString("ukg.s3.endpoint"),
		AccessKey: v.GetString("ukg.s3.accessKey"),
		SecretKey: v.GetString("ukg.s3.secretKey"),
		Bucket:    v.GetString("ukg.s3.bucket"),
		Secure:    v.GetBool("ukg.s3.secure"),
	}

	return cfg
}

func setFloat(v *viper.Viper, key string, target *float64) {
	if v.IsSet(key) {
		*target = v.GetFloat64(key)
	}
}

func setInt(v *viper.Viper, key string, target *int) {
	if v.IsSet(key) {
		*target = v.GetInt(key)
	}
}

func setBool(v *viper.Viper, key string, target *bool) {
	if v.IsSet(key) {
		*target = v.GetBool(key)
	}
}

func setString(v *viper.Viper, key string, target *string) {
	if v.IsSet(key) {
		*target = v.GetString(key)
	}
}
