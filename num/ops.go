package num

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// ConvSize is the output size along one axis of a convolution over n inputs
// with kernel k, stride s, zero padding p and dilation d.
func ConvSize(n, k, s, p, d int) int {
	return (n+2*p-d*(k-1)-1)/s + 1
}

// PoolSize is the output size along one axis of a ceil mode max pool with
// window k and stride k. Partial trailing windows produce one output element.
func PoolSize(n, k int) int {
	return (n + k - 1) / k
}

// Conv2d computes a batched 2d convolution. x is [batch, inChannels, h, w],
// weight is [outChannels, inChannels, kh, kw] and bias is [outChannels].
// Implemented as im2col followed by a matrix multiply.
func Conv2d(x, weight, bias *Array, stride, pad, dilation [2]int) *Array {
	n, c, h, w := x.Shape[0], x.Shape[1], x.Shape[2], x.Shape[3]
	nf, kh, kw := weight.Shape[0], weight.Shape[2], weight.Shape[3]
	if weight.Shape[1] != c {
		panic(fmt.Sprintf("Conv2d: %d input channels, weight expects %d", c, weight.Shape[1]))
	}
	oh := ConvSize(h, kh, stride[0], pad[0], dilation[0])
	ow := ConvSize(w, kw, stride[1], pad[1], dilation[1])
	k := c * kh * kw
	y := NewArray(n, nf, oh, ow)
	wMat := mat.NewDense(nf, k, weight.Data)
	cols := make([]float64, k*oh*ow)
	for b := 0; b < n; b++ {
		xoff := b * c * h * w
		for ci := 0; ci < c; ci++ {
			for i := 0; i < kh; i++ {
				for j := 0; j < kw; j++ {
					row := (ci*kh+i)*kw + j
					for p := 0; p < oh; p++ {
						ih := p*stride[0] - pad[0] + i*dilation[0]
						for q := 0; q < ow; q++ {
							iw := q*stride[1] - pad[1] + j*dilation[1]
							var v float64
							if ih >= 0 && ih < h && iw >= 0 && iw < w {
								v = x.Data[xoff+(ci*h+ih)*w+iw]
							}
							cols[row*oh*ow+p*ow+q] = v
						}
					}
				}
			}
		}
		var out mat.Dense
		out.Mul(wMat, mat.NewDense(k, oh*ow, cols))
		yoff := b * nf * oh * ow
		for f := 0; f < nf; f++ {
			for i := 0; i < oh*ow; i++ {
				y.Data[yoff+f*oh*ow+i] = out.At(f, i) + bias.Data[f]
			}
		}
	}
	return y
}

// Conv1d computes a batched 1d convolution. x is [batch, inChannels, length],
// weight is [outChannels, inChannels, k] and bias is [outChannels].
func Conv1d(x, weight, bias *Array, stride, pad, dilation int) *Array {
	n, c, l := x.Shape[0], x.Shape[1], x.Shape[2]
	nf, ks := weight.Shape[0], weight.Shape[2]
	if weight.Shape[1] != c {
		panic(fmt.Sprintf("Conv1d: %d input channels, weight expects %d", c, weight.Shape[1]))
	}
	ol := ConvSize(l, ks, stride, pad, dilation)
	k := c * ks
	y := NewArray(n, nf, ol)
	wMat := mat.NewDense(nf, k, weight.Data)
	cols := make([]float64, k*ol)
	for b := 0; b < n; b++ {
		xoff := b * c * l
		for ci := 0; ci < c; ci++ {
			for i := 0; i < ks; i++ {
				row := ci*ks + i
				for p := 0; p < ol; p++ {
					il := p*stride - pad + i*dilation
					var v float64
					if il >= 0 && il < l {
						v = x.Data[xoff+ci*l+il]
					}
					cols[row*ol+p] = v
				}
			}
		}
		var out mat.Dense
		out.Mul(wMat, mat.NewDense(k, ol, cols))
		yoff := b * nf * ol
		for f := 0; f < nf; f++ {
			for i := 0; i < ol; i++ {
				y.Data[yoff+f*ol+i] = out.At(f, i) + bias.Data[f]
			}
		}
	}
	return y
}

// MaxPool2d applies ceil mode max pooling with window = stride = size over
// x shaped [batch, channels, h, w]. Windows are clipped at the lower and
// right edges so trailing elements still produce an output.
func MaxPool2d(x *Array, size [2]int) *Array {
	n, c, h, w := x.Shape[0], x.Shape[1], x.Shape[2], x.Shape[3]
	oh, ow := PoolSize(h, size[0]), PoolSize(w, size[1])
	y := NewArray(n, c, oh, ow)
	for b := 0; b < n; b++ {
		for ci := 0; ci < c; ci++ {
			off := (b*c + ci) * h * w
			for p := 0; p < oh; p++ {
				for q := 0; q < ow; q++ {
					best := math.Inf(-1)
					for i := p * size[0]; i < min((p+1)*size[0], h); i++ {
						for j := q * size[1]; j < min((q+1)*size[1], w); j++ {
							if v := x.Data[off+i*w+j]; v > best {
								best = v
							}
						}
					}
					y.Data[((b*c+ci)*oh+p)*ow+q] = best
				}
			}
		}
	}
	return y
}

// MaxPool1d applies ceil mode max pooling with window = stride = size over
// x shaped [batch, channels, length].
func MaxPool1d(x *Array, size int) *Array {
	n, c, l := x.Shape[0], x.Shape[1], x.Shape[2]
	ol := PoolSize(l, size)
	y := NewArray(n, c, ol)
	for b := 0; b < n; b++ {
		for ci := 0; ci < c; ci++ {
			off := (b*c + ci) * l
			for p := 0; p < ol; p++ {
				best := math.Inf(-1)
				for i := p * size; i < min((p+1)*size, l); i++ {
					if v := x.Data[off+i]; v > best {
						best = v
					}
				}
				y.Data[(b*c+ci)*ol+p] = best
			}
		}
	}
	return y
}

// BatchStats returns the per channel mean and biased variance of x over the
// batch and spatial axes. The channel axis is axis 1.
func BatchStats(x *Array) (mean, variance *Array) {
	n, c := x.Shape[0], x.Shape[1]
	spatial := Prod(x.Shape[2:])
	mean = NewArray(c)
	variance = NewArray(c)
	cnt := float64(n * spatial)
	for ci := 0; ci < c; ci++ {
		var sum float64
		for b := 0; b < n; b++ {
			off := (b*c + ci) * spatial
			for i := 0; i < spatial; i++ {
				sum += x.Data[off+i]
			}
		}
		m := sum / cnt
		var sq float64
		for b := 0; b < n; b++ {
			off := (b*c + ci) * spatial
			for i := 0; i < spatial; i++ {
				d := x.Data[off+i] - m
				sq += d * d
			}
		}
		mean.Data[ci] = m
		variance.Data[ci] = sq / cnt
	}
	return mean, variance
}

// BatchNorm normalizes x per channel with the given statistics and applies
// the learned scale and shift. Works for both [n,c,h,w] and [n,c,l] inputs.
func BatchNorm(x, gamma, beta, mean, variance *Array, eps float64) *Array {
	n, c := x.Shape[0], x.Shape[1]
	spatial := Prod(x.Shape[2:])
	y := NewArray(x.Shape...)
	for ci := 0; ci < c; ci++ {
		scale := gamma.Data[ci] / math.Sqrt(variance.Data[ci]+eps)
		shift := beta.Data[ci] - mean.Data[ci]*scale
		for b := 0; b < n; b++ {
			off := (b*c + ci) * spatial
			for i := 0; i < spatial; i++ {
				y.Data[off+i] = x.Data[off+i]*scale + shift
			}
		}
	}
	return y
}

// Relu applies the standard rectifier elementwise.
func Relu(x *Array) *Array {
	y := NewArray(x.Shape...)
	for i, v := range x.Data {
		if v > 0 {
			y.Data[i] = v
		}
	}
	return y
}

// LeakyRelu applies the leaky rectifier with the given negative slope.
func LeakyRelu(x *Array, slope float64) *Array {
	y := NewArray(x.Shape...)
	for i, v := range x.Data {
		if v > 0 {
			y.Data[i] = v
		} else {
			y.Data[i] = v * slope
		}
	}
	return y
}

// Linear computes x*Wᵀ + b for x shaped [batch, in], weight [out, in] and
// bias [out].
func Linear(x, weight, bias *Array) *Array {
	n, in := x.Shape[0], x.Shape[1]
	out := weight.Shape[0]
	if weight.Shape[1] != in {
		panic(fmt.Sprintf("Linear: %d inputs, weight expects %d", in, weight.Shape[1]))
	}
	var prod mat.Dense
	prod.Mul(mat.NewDense(n, in, x.Data), mat.NewDense(out, in, weight.Data).T())
	y := NewArray(n, out)
	for b := 0; b < n; b++ {
		for f := 0; f < out; f++ {
			y.Data[b*out+f] = prod.At(b, f) + bias.Data[f]
		}
	}
	return y
}

// Dropout zeroes each element with probability prob and scales the survivors
// by 1/(1-prob) so the expected activation is unchanged.
func Dropout(x *Array, prob float64, rng *rand.Rand) *Array {
	if prob <= 0 {
		return x
	}
	y := NewArray(x.Shape...)
	scale := 1 / (1 - prob)
	for i, v := range x.Data {
		if rng.Float64() >= prob {
			y.Data[i] = v * scale
		}
	}
	return y
}
