package num

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewArray(t *testing.T) {
	a := NewArray(2, 3)
	assert.Equal(t, []int{2, 3}, a.Dims())
	assert.Equal(t, 6, a.Size())
	for _, v := range a.Data {
		assert.Equal(t, 0.0, v)
	}
}

func TestAtSet(t *testing.T) {
	a := NewArray(2, 2, 3)
	a.Set(5, 1, 0, 2)
	assert.Equal(t, 5.0, a.At(1, 0, 2))
	assert.Equal(t, 5.0, a.Data[1*6+0*3+2])
	assert.Panics(t, func() { a.At(2, 0, 0) })
	assert.Panics(t, func() { a.At(0, 0) })
}

func TestReshape(t *testing.T) {
	a := NewArrayData([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	b := a.Reshape(3, 2)
	assert.Equal(t, []int{3, 2}, b.Shape)
	b = a.Reshape(6, -1)
	assert.Equal(t, []int{6, 1}, b.Shape)
	// views share data
	b.Data[0] = 9
	assert.Equal(t, 9.0, a.Data[0])
	assert.Panics(t, func() { a.Reshape(4, 2) })
	assert.Panics(t, func() { a.Reshape(-1, -1) })
}

func TestClone(t *testing.T) {
	a := NewArrayData([]float64{1, 2}, 2)
	b := a.Clone()
	b.Data[0] = 7
	assert.Equal(t, 1.0, a.Data[0])
}

func TestProd(t *testing.T) {
	assert.Equal(t, 24, Prod([]int{2, 3, 4}))
	assert.Equal(t, 1, Prod(nil))
}

func TestSameShape(t *testing.T) {
	assert.True(t, SameShape([]int{2, 3}, []int{2, 3}))
	assert.False(t, SameShape([]int{2, 3}, []int{3, 2}))
	assert.False(t, SameShape([]int{2}, []int{2, 1}))
}

func TestFormat(t *testing.T) {
	a := NewArrayData([]float64{1, 2, 3, 4}, 2, 2)
	s := a.String()
	require.Contains(t, s, "1")
	require.Contains(t, s, "4")
}
