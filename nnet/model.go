package nnet

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/qamq/2025cnnproj/num"
)

// Model is the architecture factory: it resolves a Config into the
// immutable per layer spec list, the input geometry and the canonical name,
// and builds ready to train networks from them. The resolved fields are
// never re-derived after construction.
type Model struct {
	Config Config
	Specs  []LayerSpec
	Input  InputGeometry
	Name   string
}

// New validates the configuration and resolves all per layer settings.
// Scalar settings broadcast across the declared layer count; explicit lists
// are used as given. Fails on an invalid window size, regression label,
// norm placement, layer setting or channel plan.
func New(c Config) (*Model, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	geom, err := c.inputGeometry()
	if err != nil {
		return nil, err
	}
	kernels, err := resolveList(c.KernelList, c.Kernel, c.LayerNumber, "kernel")
	if err != nil {
		return nil, err
	}
	strides, err := resolveList(c.StrideList, c.Stride, c.LayerNumber, "stride")
	if err != nil {
		return nil, err
	}
	dilations, err := resolveList(c.DilationList, c.Dilation, c.LayerNumber, "dilation")
	if err != nil {
		return nil, err
	}
	pools, err := resolveList(c.PoolList, c.Pool, c.LayerNumber, "pool")
	if err != nil {
		return nil, err
	}
	plan, err := channelPlan(c)
	if err != nil {
		return nil, err
	}
	specs := make([]LayerSpec, c.LayerNumber)
	for i := range specs {
		specs[i] = LayerSpec{
			Kernel:   kernels[i],
			Stride:   strides[i],
			Dilation: dilations[i],
			Pool:     pools[i],
			Channels: plan[i],
		}
		if err := checkSpec(specs[i], c.TS1D, i); err != nil {
			return nil, err
		}
	}
	return &Model{
		Config: c,
		Specs:  specs,
		Input:  geom,
		Name:   CanonicalName(c, specs),
	}, nil
}

func resolveList(list []Size, scalar Size, n int, what string) ([]Size, error) {
	if list == nil {
		out := make([]Size, n)
		for i := range out {
			out[i] = scalar
		}
		return out, nil
	}
	if len(list) != n {
		return nil, errors.Errorf("config: %d %s settings for %d layers", len(list), what, n)
	}
	return list, nil
}

func checkSpec(s LayerSpec, ts1d bool, layer int) error {
	check := func(v int, what string) error {
		if v < 1 {
			return errors.Errorf("config: layer %d %s must be positive", layer, what)
		}
		return nil
	}
	fields := []struct {
		size Size
		name string
	}{
		{s.Kernel, "kernel"}, {s.Stride, "stride"}, {s.Dilation, "dilation"}, {s.Pool, "pool"},
	}
	for _, f := range fields {
		if err := check(f.size.H, f.name); err != nil {
			return err
		}
		if !ts1d {
			if err := check(f.size.W, f.name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Build assembles a fresh network and places it on the given device.
func (m *Model) Build(dev num.Device) (*Network, error) {
	n, err := newNetwork(m.Config, m.Specs, m.Input, m.Name)
	if err != nil {
		return nil, err
	}
	return n.To(dev), nil
}

// BuildFromState assembles a network and restores the complete parameter
// set of a prior full training run with identical specification.
func (m *Model) BuildFromState(s State, dev num.Device) (*Network, error) {
	n, err := m.Build(dev)
	if err != nil {
		return nil, err
	}
	klog.Infof("loading model from state")
	if err := n.LoadState(s); err != nil {
		return nil, err
	}
	return n, nil
}

// BuildPartialFromState assembles a network and warm starts all conv blocks
// except the last from the snapshot, leaving the final block and output
// head freshly initialized for retraining.
func (m *Model) BuildPartialFromState(s State, dev num.Device) (*Network, error) {
	n, err := m.Build(dev)
	if err != nil {
		return nil, err
	}
	if err := n.loadPartial(s); err != nil {
		return nil, err
	}
	return n, nil
}
