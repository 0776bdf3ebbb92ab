package num

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestConvSize(t *testing.T) {
	// 5x3 kernel with half padding keeps the size at stride 1
	assert.Equal(t, 64, ConvSize(64, 5, 1, 2, 1))
	assert.Equal(t, 60, ConvSize(60, 3, 1, 1, 1))
	// strided
	assert.Equal(t, 32, ConvSize(96, 5, 3, 2, 1))
	// dilated
	assert.Equal(t, 3, ConvSize(5, 2, 1, 0, 2))
}

func TestPoolSize(t *testing.T) {
	// ceil mode: a partial trailing window still produces an element
	assert.Equal(t, 3, PoolSize(5, 2))
	assert.Equal(t, 2, PoolSize(4, 2))
	assert.Equal(t, 1, PoolSize(1, 2))
	assert.Equal(t, 7, PoolSize(7, 1))
}

func TestConv1d(t *testing.T) {
	x := NewArrayData([]float64{1, 2, 3, 4}, 1, 1, 4)
	w := NewArrayData([]float64{1, 1}, 1, 1, 2)
	b := NewArrayData([]float64{0.5}, 1)
	y := Conv1d(x, w, b, 1, 0, 1)
	require.Equal(t, []int{1, 1, 3}, y.Shape)
	assert.Equal(t, []float64{3.5, 5.5, 7.5}, y.Data)
}

func TestConv1dDilated(t *testing.T) {
	x := NewArrayData([]float64{1, 2, 3, 4, 5}, 1, 1, 5)
	w := NewArrayData([]float64{1, 1}, 1, 1, 2)
	b := NewArray(1)
	y := Conv1d(x, w, b, 1, 0, 2)
	require.Equal(t, []int{1, 1, 3}, y.Shape)
	assert.Equal(t, []float64{4, 6, 8}, y.Data)
}

func TestConv2d(t *testing.T) {
	x := NewArrayData([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, 1, 1, 3, 3)
	w := NewArrayData([]float64{1, 1, 1, 1}, 1, 1, 2, 2)
	b := NewArray(1)
	y := Conv2d(x, w, b, [2]int{1, 1}, [2]int{0, 0}, [2]int{1, 1})
	require.Equal(t, []int{1, 1, 2, 2}, y.Shape)
	assert.Equal(t, []float64{12, 16, 24, 28}, y.Data)
}

func TestConv2dPadded(t *testing.T) {
	x := NewArrayData([]float64{1, 2, 3, 4}, 1, 1, 2, 2)
	w := NewArray(1, 1, 3, 3)
	w.Fill(1)
	b := NewArray(1)
	y := Conv2d(x, w, b, [2]int{1, 1}, [2]int{1, 1}, [2]int{1, 1})
	require.Equal(t, []int{1, 1, 2, 2}, y.Shape)
	// every 3x3 window covers all four in bounds elements
	assert.Equal(t, []float64{10, 10, 10, 10}, y.Data)
}

func TestConv2dChannels(t *testing.T) {
	// two input channels, two filters, 1x1 kernel
	x := NewArrayData([]float64{1, 2, 3, 4, 10, 20, 30, 40}, 1, 2, 2, 2)
	w := NewArrayData([]float64{1, 1, 2, 0}, 2, 2, 1, 1)
	b := NewArrayData([]float64{0, 1}, 2)
	y := Conv2d(x, w, b, [2]int{1, 1}, [2]int{0, 0}, [2]int{1, 1})
	require.Equal(t, []int{1, 2, 2, 2}, y.Shape)
	assert.Equal(t, []float64{11, 22, 33, 44, 3, 5, 7, 9}, y.Data)
}

func TestMaxPool1d(t *testing.T) {
	x := NewArrayData([]float64{5, 1, 4, 2, 3}, 1, 1, 5)
	y := MaxPool1d(x, 2)
	require.Equal(t, []int{1, 1, 3}, y.Shape)
	assert.Equal(t, []float64{5, 4, 3}, y.Data)
}

func TestMaxPool2d(t *testing.T) {
	x := NewArrayData([]float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9}, 1, 1, 3, 3)
	y := MaxPool2d(x, [2]int{2, 2})
	require.Equal(t, []int{1, 1, 2, 2}, y.Shape)
	assert.Equal(t, []float64{5, 6, 8, 9}, y.Data)
}

func TestBatchStats(t *testing.T) {
	x := NewArrayData([]float64{1, 3, 10, 10}, 1, 2, 2)
	mean, variance := BatchStats(x)
	assert.Equal(t, []float64{2, 10}, mean.Data)
	assert.Equal(t, []float64{1, 0}, variance.Data)
}

func TestBatchNorm(t *testing.T) {
	x := NewArrayData([]float64{1, 3, 5, 7}, 1, 1, 4)
	gamma := NewArrayData([]float64{2}, 1)
	beta := NewArrayData([]float64{1}, 1)
	mean := NewArrayData([]float64{4}, 1)
	variance := NewArrayData([]float64{4}, 1)
	y := BatchNorm(x, gamma, beta, mean, variance, 0)
	require.Equal(t, x.Shape, y.Shape)
	assert.InDeltaSlice(t, []float64{-2, 0, 2, 4}, y.Data, 1e-12)
}

func TestRelu(t *testing.T) {
	x := NewArrayData([]float64{-2, 0, 3}, 3)
	assert.Equal(t, []float64{0, 0, 3}, Relu(x).Data)
	y := LeakyRelu(x, 0.1)
	assert.InDeltaSlice(t, []float64{-0.2, 0, 3}, y.Data, 1e-12)
}

func TestLinear(t *testing.T) {
	x := NewArrayData([]float64{1, 2, 3, 4}, 2, 2)
	w := NewArrayData([]float64{1, 1, 2, 0}, 2, 2)
	b := NewArrayData([]float64{0, 1}, 2)
	y := Linear(x, w, b)
	require.Equal(t, []int{2, 2}, y.Shape)
	assert.Equal(t, []float64{3, 3, 7, 7}, y.Data)
}

func TestDropout(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	x := NewArray(1000)
	x.Fill(1)
	y := Dropout(x, 0.5, rng)
	zeros := 0
	for _, v := range y.Data {
		if v == 0 {
			zeros++
		} else {
			assert.Equal(t, 2.0, v)
		}
	}
	// roughly half the elements should be dropped
	assert.Greater(t, zeros, 350)
	assert.Less(t, zeros, 650)

	same := Dropout(x, 0, rng)
	assert.Equal(t, x, same)
}
