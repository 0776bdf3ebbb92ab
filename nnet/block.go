package nnet

import "github.com/qamq/2025cnnproj/num"

// Block is one conv block: convolution, optional batch norm, activation and
// optional pooling, ordered by the norm placement policy. Ops are addressed
// by position within the block when restoring weights.
type Block struct {
	Ops []Layer
}

func (b *Block) OutShape(in []int) []int {
	shape := in
	for _, op := range b.Ops {
		shape = op.OutShape(shape)
	}
	return shape
}

func (b *Block) Fprop(x *num.Array, train bool) *num.Array {
	for _, op := range b.Ops {
		x = op.Fprop(x, train)
	}
	return x
}

// buildBlock assembles one conv block mapping nin to nout channels.
// No weight initialization happens here, that is applied by the caller.
func buildBlock(nin, nout int, spec LayerSpec, c Config) *Block {
	if c.TS1D {
		return buildBlock1d(nin, nout, spec)
	}
	return buildBlock2d(nin, nout, spec, c)
}

func buildBlock2d(nin, nout int, spec LayerSpec, c Config) *Block {
	sub := func(in int) []Layer {
		conv := newConv2d(in, nout, spec)
		act := &activation{leaky: c.LeakyRelu}
		if !c.BatchNorm {
			return []Layer{conv, act}
		}
		switch c.BNLoc {
		case BNBeforeRelu:
			return []Layer{conv, newBatchNorm(nout), act}
		case BNAfterRelu:
			return []Layer{conv, act, newBatchNorm(nout)}
		default: // norm is deferred until after pooling
			return []Layer{conv, act}
		}
	}
	ops := sub(nin)
	if c.DoubleConv {
		ops = append(ops, sub(nout)...)
	}
	if spec.Pool != (Size{1, 1}) {
		ops = append(ops, &maxPool2d{size: spec.Pool})
	}
	if c.BatchNorm && c.BNLoc == BNAfterPool {
		ops = append(ops, newBatchNorm(nout))
	}
	return &Block{Ops: ops}
}

// sequence blocks have a fixed layout: conv, batch norm, leaky relu, pool
func buildBlock1d(nin, nout int, spec LayerSpec) *Block {
	return &Block{Ops: []Layer{
		newConv1d(nin, nout, spec),
		newBatchNorm(nout),
		&activation{leaky: true},
		&maxPool1d{size: spec.Pool.H},
	}}
}
