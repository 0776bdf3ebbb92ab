package web

import (
	"sync"

	"github.com/qamq/2025cnnproj/nnet"
	"github.com/qamq/2025cnnproj/num"
)

// Config is the inspector state: the named configuration being viewed and
// edited. Pages share one instance and take the lock around access.
type Config struct {
	Model string
	nnet.Config
	sync.Mutex
}

// NewConfig loads the named configuration from DataDir, falling back to the
// benchmark settings for window size 20 when no file exists yet.
func NewConfig(model string) (*Config, error) {
	conf, err := nnet.LoadConfig(model + ".json")
	if err != nil {
		conf = nnet.BaselineConfig(20)
		if err = conf.Save(model + ".json"); err != nil {
			return nil, err
		}
	}
	return &Config{Model: model, Config: conf}, nil
}

// Resolve the current settings into a model. Caller must hold the lock.
func (c *Config) Resolve() (*nnet.Model, error) {
	return nnet.New(c.Config)
}

// Network builds a fresh network from the current settings.
func (c *Config) Network() (*nnet.Network, error) {
	m, err := c.Resolve()
	if err != nil {
		return nil, err
	}
	return m.Build(num.CPU)
}
