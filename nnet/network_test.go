package nnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qamq/2025cnnproj/num"
)

func smallNet(t *testing.T) *Network {
	t.Helper()
	c := DefaultConfig(5, 1)
	c.Inplanes = 4
	c.RandSeed = 1
	n, err := mustModel(t, c).Build(num.CPU)
	require.NoError(t, err)
	return n
}

func TestNetworkInShape(t *testing.T) {
	n := smallNet(t)
	assert.Equal(t, []int{1, 32, 15}, n.InShape())

	c := DefaultConfig1D(20, 2)
	n1d, err := mustModel(t, c).Build(num.CPU)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 20}, n1d.InShape())
}

func TestNetworkParamCount(t *testing.T) {
	n := smallNet(t)
	// conv 4x1x5x3 + 4, norm 4 + 4, head 2x960 + 2
	assert.Equal(t, 64, ParamCount(n.ConvLayers[0].Ops[0]))
	assert.Equal(t, 8, ParamCount(n.ConvLayers[0].Ops[1]))
	assert.Equal(t, 960, n.FlattenSize())
	assert.Equal(t, 64+8+1922, n.ParamCount())
}

func TestNetworkFprop(t *testing.T) {
	n := smallNet(t)
	x := num.NewArray(3, 1, 32, 15)
	for i := range x.Data {
		x.Data[i] = float64(i % 11)
	}
	y := n.Fprop(x, false)
	require.Equal(t, []int{3, 2}, y.Shape)
	// evaluation is deterministic
	assert.Equal(t, y.Data, n.Fprop(x, false).Data)
	assert.Panics(t, func() { n.Fprop(num.NewArray(3, 1, 32, 16), false) })
}

func TestNetworkSeedRepeatable(t *testing.T) {
	n1 := smallNet(t)
	n2 := smallNet(t)
	assert.Equal(t, n1.fc.w.Data, n2.fc.w.Data)
	w1 := n1.ConvLayers[0].Ops[0].(*conv2d)
	w2 := n2.ConvLayers[0].Ops[0].(*conv2d)
	assert.Equal(t, w1.w.Data, w2.w.Data)
}

func TestNetworkInitScheme(t *testing.T) {
	c := DefaultConfig(5, 1)
	c.Inplanes = 4
	c.RandSeed = 1
	n, err := mustModel(t, c).Build(num.CPU)
	require.NoError(t, err)
	// xavier init sets a constant output head bias
	for _, v := range n.fc.b.Data {
		assert.Equal(t, 0.01, v)
	}

	c.Xavier = false
	n, err = mustModel(t, c).Build(num.CPU)
	require.NoError(t, err)
	assert.NotEqual(t, n.fc.b.Data[0], n.fc.b.Data[1])

	// sequence models apply xavier regardless of the toggle
	c1 := DefaultConfig1D(5, 1)
	c1.Xavier = false
	c1.RandSeed = 1
	n, err = mustModel(t, c1).Build(num.CPU)
	require.NoError(t, err)
	for _, v := range n.fc.b.Data {
		assert.Equal(t, 0.01, v)
	}
}

func TestNetworkSummary(t *testing.T) {
	n := smallNet(t)
	rows := n.SummaryRows()
	require.Len(t, rows, 4+3)
	assert.Equal(t, []int{4, 32, 15}, rows[0].OutShape)
	assert.Equal(t, []int{2}, rows[len(rows)-1].OutShape)

	s := n.Summary()
	assert.Contains(t, s, n.Name)
	assert.Contains(t, s, "total params")
	assert.Contains(t, s, "1,994")
}
