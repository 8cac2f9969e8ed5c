package router

/*
Layer3Config controls agent escalation.
*/
type Layer3Config struct {
	Enabled   bool     `json:"enabled"`
	Agents    []string `json:"agents"`
	MaxReruns int      `json:"max_reruns"`
}

/*
Config tunes the router. Thresholds are compared against final confidences
in [0,1].
*/
type Config struct {
	ConfidenceThreshold float64      `json:"confidence_threshold"`
	MonitorThreshold    float64      `json:"monitor_threshold"`
	MaxPasses           int          `json:"max_passes"`
	MinAvgConfidence    float64      `json:"min_avg_confidence"`
	HistorySize         int          `json:"history_size"`
	SimulationWordLimit int          `json:"simulation_word_limit"`
	SimulationKeywords  []string     `json:"simulation_keywords"`
	MaxQueryLength      int          `json:"max_query_length"`
	SearchHits          int          `json:"search_hits"`
	ExpansionDepth      int          `json:"expansion_depth"`
	MemoryRecall        int          `json:"memory_recall"`
	Layer3              Layer3Config `json:"layer3"`
}

func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.95,
		MonitorThreshold:    0.995,
		MaxPasses:           3,
		MinAvgConfidence:    0.8,
		HistorySize:         100,
		SimulationWordLimit: 10,
		SimulationKeywords: []string{
			"analyze", "analysis", "compare", "considerations", "compliance",
			"framework", "governance", "impact", "implications", "regulation",
			"regulatory", "requirements", "risk", "strategy",
		},
		MaxQueryLength: 4096,
		SearchHits:     8,
		ExpansionDepth: 1,
		MemoryRecall:   3,
		Layer3: Layer3Config{
			Enabled: true,
			Agents:  []string{"cross_domain_synthesis", "fact_verification"},
		},
	}
}

func (cfg Config) withDefaults() Config {
	defaults := DefaultConfig()

	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = defaults.ConfidenceThreshold
	}

	if cfg.MonitorThreshold < cfg.ConfidenceThreshold {
		cfg.MonitorThreshold = cfg.ConfidenceThreshold
	}

	if cfg.MaxPasses < 1 {
		cfg.MaxPasses = defaults.MaxPasses
	}

	if cfg.HistorySize < 1 {
		cfg.HistorySize = defaults.HistorySize
	}

	if cfg.SimulationWordLimit < 1 {
		cfg.SimulationWordLimit = defaults.SimulationWordLimit
	}

	if cfg.SimulationKeywords == nil {
		cfg.SimulationKeywords = defaults.SimulationKeywords
	}

	if cfg.MaxQueryLength < 1 {
		cfg.MaxQueryLength = defaults.MaxQueryLength
	}

	if cfg.SearchHits < 1 {
		cfg.SearchHits = defaults.SearchHits
	}

	if cfg.ExpansionDepth < 0 {
		cfg.ExpansionDepth = 0
	}

	if cfg.MemoryRecall < 0 {
		cfg.MemoryRecall = 0
	}

	if cfg.Layer3.MaxReruns < 0 {
		cfg.Layer3.MaxReruns = 0
	}

	return cfg
}
