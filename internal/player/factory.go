package player

import (
	"github.com/PizzaHomicide/reelcore/internal/config"
	"github.com/PizzaHomicide/reelcore/internal/engine"
	"github.com/PizzaHomicide/reelcore/internal/engine/mpv"
	"github.com/PizzaHomicide/reelcore/internal/log"
)

// NewEngineFactory returns a factory building the engine selected by the configuration.  post must hand functions to
// the event loop; engines use it to deliver their callbacks.
func NewEngineFactory(cfg *config.Config, post func(func())) engine.Factory {
	playerType := cfg.Player.Type
	log.Info("Creating engine factory", "type", playerType)

	switch playerType {
	case "mpv":
	default:
		log.Warn("Unknown player type, falling back to MPV", "type", playerType)
	}

	mpvConfig := mpv.DefaultConfig()
	if cfg.Player.Path != "" {
		mpvConfig.Path = cfg.Player.Path
	}
	mpvConfig.Args = cfg.Player.Args

	return func() (engine.Engine, error) {
		return mpv.New(mpvConfig, post), nil
	}
}
