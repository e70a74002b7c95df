package dual

import "github.com/alphabeth/puctsearch/game"

// Config configures the policy/value network's graph shape.
type Config struct {
	K            int  `json:"k"`             // number of filters
	SharedLayers int  `json:"shared_layers"` // number of shared hidden layers
	FC           int  `json:"fc"`            // fc layer width
	BatchSize    int  `json:"batch_size"`    // batch size
	Width        int  `json:"width"`         // board size width
	Height       int  `json:"height"`        // board size height
	FrameCount   int  `json:"frame_count"`   // stacked history frames
	Features     int  `json:"features"`      // per-square plane count
	HeaderSize   int  `json:"header_size"`   // header vector length
	ActionSpace  int  `json:"action_space"`  // policy output width
	FwdOnly      bool `json:"fwd_only"`      // is this a fwd only graph?
}

// DefaultConf returns a config sized for the 8x8 chess encoding.
func DefaultConf() Config {
	m, n := 8, 8
	k := round((m * n) / 3)
	return Config{
		K:            k,
		SharedLayers: 6,
		FC:           2 * k,
		BatchSize:    256,
		Width:        n,
		Height:       m,
		FrameCount:   game.FrameCount,
		Features:     game.FrameSize,
		HeaderSize:   game.HeaderSize,
		ActionSpace:  game.ActionSpace,
	}
}

func (conf Config) IsValid() bool {
	return conf.K >= 1 &&
		conf.ActionSpace >= 3 &&
		conf.SharedLayers >= 0 &&
		conf.FC > 1 &&
		conf.BatchSize >= 1 &&
		conf.Features > 0 &&
		conf.HeaderSize > 0
}

func round(a int) int {
	n := a - 1
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++

	lt := n / 2
	if (a - lt) < (n - a) {
		return lt
	}
	return n
}
