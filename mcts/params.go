package mcts

// Params holds every tunable search option for a Tree. It is the JSON
// payload carried by the control protocol's Config command.
type Params struct {
	SearchNodes      uint32  `json:"search_nodes"`
	PUCTPolicyWeight float64 `json:"puct_policy_weight"`
	PUCTNoiseWeight  float64 `json:"puct_noise_weight"`
	PUCTNoiseAlpha   float64 `json:"puct_noise_alpha"`
	BatchSize        uint8   `json:"batch_size"`
	ModelPath        string  `json:"model_path"`
	NumThreads       int     `json:"num_threads"`
	Temperature      float64 `json:"temperature"`

	// TemperatureDropPly and TemperatureDrop implement the spec's
	// temperature-drop design note: ply() >= TemperatureDropPly switches
	// Pick's sampling temperature to TemperatureDrop.
	TemperatureDropPly uint32  `json:"temperature_drop_ply"`
	TemperatureDrop    float64 `json:"temperature_drop"`

	// RolloutWeight blends a random rollout value into a freshly expanded
	// node's backprop value; 0 disables rollouts entirely.
	RolloutWeight float64 `json:"rollout_weight"`
}

// DefaultParams returns parameters sized for a single-threaded, small
// batch smoke test - not tuned for strength.
func DefaultParams() Params {
	return Params{
		SearchNodes:        800,
		PUCTPolicyWeight:   1.0,
		PUCTNoiseWeight:    0.25,
		PUCTNoiseAlpha:     0.3,
		BatchSize:          8,
		NumThreads:         1,
		Temperature:        1.0,
		TemperatureDropPly: 30,
		TemperatureDrop:    0.1,
	}
}

// IsValid rejects parameter sets that would make the tree unable to make
// progress, matching the teacher's Config.IsValid guard on mcts.Config.
func (p Params) IsValid() bool {
	return p.SearchNodes > 0 &&
		p.BatchSize > 0 &&
		p.NumThreads > 0 &&
		p.PUCTNoiseAlpha > 0 &&
		p.Temperature > 0 &&
		p.TemperatureDrop > 0 &&
		p.RolloutWeight >= 0 && p.RolloutWeight <= 1
}
