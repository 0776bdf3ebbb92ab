package nnet

import (
	"github.com/pkg/errors"
	"github.com/qamq/2025cnnproj/num"
)

// channelPlan resolves the per layer output channel counts: the explicit
// plan when one is configured, else the base count doubling at each layer.
func channelPlan(c Config) ([]int, error) {
	if c.Channels != nil {
		if len(c.Channels) != c.LayerNumber {
			return nil, errors.Errorf("config: %d channel counts for %d layers", len(c.Channels), c.LayerNumber)
		}
		return c.Channels, nil
	}
	plan := make([]int, c.LayerNumber)
	for i := range plan {
		plan[i] = c.Inplanes << i
	}
	return plan, nil
}

// FlattenWidth propagates the input geometry through the exact block
// sequence the assembler builds and returns the flattened feature width
// feeding the output head. Conv output sizes use floor rounding, pooling
// uses ceil rounding so partial trailing windows still produce an element.
// Fails if any intermediate size collapses to zero or below.
func FlattenWidth(c Config, specs []LayerSpec, geom InputGeometry) (int, error) {
	plan, err := channelPlan(c)
	if err != nil {
		return 0, err
	}
	if c.TS1D {
		length := geom[1]
		for i, spec := range specs {
			length = num.ConvSize(length, spec.Kernel.H, spec.Stride.H, spec.Kernel.H/2, spec.Dilation.H)
			if length <= 0 {
				return 0, errors.Errorf("shape: layer %d output length %d for input %v", i, length, geom)
			}
			if spec.Pool.H > 1 {
				length = num.PoolSize(length, spec.Pool.H)
			}
		}
		return plan[len(plan)-1] * length, nil
	}
	h, w := geom[0], geom[1]
	conv := func(spec LayerSpec) (int, int) {
		pad := spec.padding()
		return num.ConvSize(h, spec.Kernel.H, spec.Stride.H, pad.H, spec.Dilation.H),
			num.ConvSize(w, spec.Kernel.W, spec.Stride.W, pad.W, spec.Dilation.W)
	}
	for i, spec := range specs {
		h, w = conv(spec)
		if h <= 0 || w <= 0 {
			return 0, errors.Errorf("shape: layer %d output size %dx%d for input %v", i, h, w, geom)
		}
		if c.DoubleConv {
			h, w = conv(spec)
			if h <= 0 || w <= 0 {
				return 0, errors.Errorf("shape: layer %d output size %dx%d for input %v", i, h, w, geom)
			}
		}
		if spec.Pool != (Size{1, 1}) {
			h, w = num.PoolSize(h, spec.Pool.H), num.PoolSize(w, spec.Pool.W)
		}
	}
	return plan[len(plan)-1] * h * w, nil
}
