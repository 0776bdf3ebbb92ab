// Package num is the numeric backend for architecture construction and
// forward evaluation: a plain n dimensional array type plus the tensor ops
// needed by convolutional stacks. Everything runs synchronously on the host.
package num

import (
	"fmt"
	"strings"
)

// Parameters for array printing
var (
	PrintThreshold = 12
	PrintEdgeitems = 4
)

// Array is an n dimensional tensor backed by a flat float64 slice in row
// major order. Fields are exported so snapshots can be gob encoded.
type Array struct {
	Shape []int
	Data  []float64
}

// NewArray allocates a zeroed array with the given shape.
func NewArray(shape ...int) *Array {
	return &Array{
		Shape: append([]int(nil), shape...),
		Data:  make([]float64, Prod(shape)),
	}
}

// NewArrayData creates an array wrapping the given data slice.
// Panics if the size does not match the shape.
func NewArrayData(data []float64, shape ...int) *Array {
	if len(data) != Prod(shape) {
		panic(fmt.Sprintf("NewArrayData: %d values for shape %v", len(data), shape))
	}
	return &Array{Shape: append([]int(nil), shape...), Data: data}
}

// Size is the total number of elements.
func (a *Array) Size() int { return len(a.Data) }

// Dims returns the shape of the array.
func (a *Array) Dims() []int { return a.Shape }

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	return &Array{
		Shape: append([]int(nil), a.Shape...),
		Data:  append([]float64(nil), a.Data...),
	}
}

// Reshape returns a view on the same data with a different shape. A single
// dimension may be -1 in which case it is inferred from the size.
func (a *Array) Reshape(shape ...int) *Array {
	dims := append([]int(nil), shape...)
	for i := range dims {
		if dims[i] == -1 {
			other := 1
			for j, dim := range dims {
				if i != j {
					if dim == -1 {
						panic("Reshape: can only have single -1 value")
					}
					other *= dim
				}
			}
			dims[i] = len(a.Data) / other
		}
	}
	if Prod(dims) != len(a.Data) {
		panic(fmt.Sprintf("Reshape: cannot reshape %v to %v", a.Shape, shape))
	}
	return &Array{Shape: dims, Data: a.Data}
}

// At returns the element at the given indices.
func (a *Array) At(ix ...int) float64 {
	return a.Data[a.index(ix)]
}

// Set assigns the element at the given indices.
func (a *Array) Set(val float64, ix ...int) {
	a.Data[a.index(ix)] = val
}

func (a *Array) index(ix []int) int {
	if len(ix) != len(a.Shape) {
		panic(fmt.Sprintf("Array: expected %d indices, got %d", len(a.Shape), len(ix)))
	}
	pos, stride := 0, 1
	for i := len(ix) - 1; i >= 0; i-- {
		if ix[i] < 0 || ix[i] >= a.Shape[i] {
			panic(fmt.Sprintf("Array: index %v out of range for shape %v", ix, a.Shape))
		}
		pos += ix[i] * stride
		stride *= a.Shape[i]
	}
	return pos
}

// Fill sets every element to val.
func (a *Array) Fill(val float64) {
	for i := range a.Data {
		a.Data[i] = val
	}
}

// Formatted output
func (a *Array) String() string {
	return format(a.Shape, a.Data, 0)
}

func format(dims []int, data []float64, at int) string {
	switch len(dims) {
	case 0:
		return fmt.Sprintf("%7.5g ", data[at])
	case 1:
		var sb strings.Builder
		sb.WriteString("[")
		for i := 0; i < dims[0]; i++ {
			if dims[0] > PrintThreshold+1 && i == PrintEdgeitems {
				sb.WriteString("    ... ")
				i = dims[0] - PrintEdgeitems - 1
				continue
			}
			sb.WriteString(format(nil, data, at+i))
		}
		sb.WriteString("]")
		return sb.String()
	default:
		var sb strings.Builder
		sb.WriteString("[")
		bsize := Prod(dims[1:])
		for i := 0; i < dims[0]; i++ {
			if dims[0] > PrintThreshold+1 && i == PrintEdgeitems {
				sb.WriteString("\n ...")
				i = dims[0] - PrintEdgeitems - 1
				continue
			}
			if i > 0 {
				sb.WriteString("\n ")
			}
			sb.WriteString(format(dims[1:], data, at+i*bsize))
		}
		sb.WriteString("]")
		return sb.String()
	}
}

// Prod is the product of the elements of an integer slice.
// A zero dimension array (scalar) has size 1.
func Prod(arr []int) int {
	prod := 1
	for _, v := range arr {
		prod *= v
	}
	return prod
}

// SameShape checks if two shapes are identical.
func SameShape(xd, yd []int) bool {
	if len(xd) != len(yd) {
		return false
	}
	for i := range xd {
		if xd[i] != yd[i] {
			return false
		}
	}
	return true
}
