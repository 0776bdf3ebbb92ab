package nnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateKeys(t *testing.T) {
	n := smallNet(t)
	s := n.State()
	for _, key := range []string{
		"conv_layers.0.0.weight", "conv_layers.0.0.bias",
		"conv_layers.0.1.weight", "conv_layers.0.1.bias",
		"conv_layers.0.1.running_mean", "conv_layers.0.1.running_var",
		"fc.weight", "fc.bias",
	} {
		assert.Contains(t, s, key)
	}
	assert.Len(t, s, 8)
}

func TestStateIsACopy(t *testing.T) {
	n := smallNet(t)
	s := n.State()
	s["fc.weight"].Fill(9)
	assert.NotEqual(t, 9.0, n.fc.w.Data[0])
}

func TestStateSaveLoadFile(t *testing.T) {
	useTempDataDir(t)
	n := smallNet(t)
	s := n.State()
	require.NoError(t, SaveState(s, "model.dat"))

	loaded, err := LoadStateFile("model.dat")
	require.NoError(t, err)
	require.Equal(t, s, loaded)

	_, err = LoadStateFile("missing.dat")
	assert.Error(t, err)
}

func TestLoadStateShapeMismatch(t *testing.T) {
	n := smallNet(t)
	s := n.State()
	s["fc.weight"] = s["fc.weight"].Reshape(-1)
	err := n.LoadState(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shape mismatch")
}

func TestLoadStateRunningStats(t *testing.T) {
	n := smallNet(t)
	s := n.State()
	s[stateKey(0, 1, "running_mean")].Fill(3)
	s[stateKey(0, 1, "running_var")].Fill(2)
	require.NoError(t, n.LoadState(s))
	bn := n.ConvLayers[0].Ops[1].(*batchNorm)
	assert.Equal(t, 3.0, bn.runMean.Data[0])
	assert.Equal(t, 2.0, bn.runVar.Data[0])
}
