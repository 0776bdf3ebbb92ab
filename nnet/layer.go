package nnet

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pkg/errors"
	"github.com/qamq/2025cnnproj/num"
)

// Layer interface type represents one op in a conv block or in the tail of
// the network. Shapes include the leading batch dimension.
type Layer interface {
	OutShape(inShape []int) []int
	Fprop(x *num.Array, train bool) *num.Array
	ToString() string
}

// ParamLayer is a layer with weight and bias parameters.
type ParamLayer interface {
	Layer
	Params() (W, B *num.Array)
	SetParams(W, B *num.Array) error
	InitWeights(rng *rand.Rand, xavier bool)
}

// ParamCount is the total parameter count of a layer, zero for layers
// without parameters.
func ParamCount(l Layer) int {
	if p, ok := l.(ParamLayer); ok {
		w, b := p.Params()
		return w.Size() + b.Size()
	}
	return 0
}

// xavierUniform fills w from a uniform distribution scaled by the fan in
// and fan out of the layer.
func xavierUniform(w *num.Array, fanIn, fanOut int, rng *rand.Rand) {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	u := distuv.Uniform{Min: -limit, Max: limit, Src: rng}
	for i := range w.Data {
		w.Data[i] = u.Rand()
	}
}

// scaledUniform fills w from a uniform distribution scaled by 1/sqrt(fan in).
func scaledUniform(w *num.Array, fanIn int, rng *rand.Rand) {
	limit := 1 / math.Sqrt(float64(fanIn))
	u := distuv.Uniform{Min: -limit, Max: limit, Src: rng}
	for i := range w.Data {
		w.Data[i] = u.Rand()
	}
}

func setParams(dst, src *num.Array, what string) error {
	if !num.SameShape(dst.Shape, src.Shape) {
		return errors.Errorf("%s: shape mismatch %v vs %v", what, dst.Shape, src.Shape)
	}
	copy(dst.Data, src.Data)
	return nil
}

// 2d convolution over [batch, channels, rows, cols] input
type conv2d struct {
	nin, nout int
	kernel    Size
	stride    Size
	pad       Size
	dilation  Size
	w, b      *num.Array
}

func newConv2d(nin, nout int, spec LayerSpec) *conv2d {
	pad := spec.padding()
	return &conv2d{
		nin: nin, nout: nout,
		kernel: spec.Kernel, stride: spec.Stride, pad: pad, dilation: spec.Dilation,
		w: num.NewArray(nout, nin, spec.Kernel.H, spec.Kernel.W),
		b: num.NewArray(nout),
	}
}

func (l *conv2d) OutShape(in []int) []int {
	return []int{in[0], l.nout,
		num.ConvSize(in[2], l.kernel.H, l.stride.H, l.pad.H, l.dilation.H),
		num.ConvSize(in[3], l.kernel.W, l.stride.W, l.pad.W, l.dilation.W)}
}

func (l *conv2d) Fprop(x *num.Array, train bool) *num.Array {
	return num.Conv2d(x, l.w, l.b,
		[2]int{l.stride.H, l.stride.W}, [2]int{l.pad.H, l.pad.W}, [2]int{l.dilation.H, l.dilation.W})
}

func (l *conv2d) Params() (W, B *num.Array) { return l.w, l.b }

func (l *conv2d) SetParams(W, B *num.Array) error {
	if err := setParams(l.w, W, "conv2d weight"); err != nil {
		return err
	}
	return setParams(l.b, B, "conv2d bias")
}

func (l *conv2d) InitWeights(rng *rand.Rand, xavier bool) {
	fanIn := l.nin * l.kernel.H * l.kernel.W
	if xavier {
		xavierUniform(l.w, fanIn, l.nout*l.kernel.H*l.kernel.W, rng)
	} else {
		scaledUniform(l.w, fanIn, rng)
	}
	scaledUniform(l.b, fanIn, rng)
}

func (l *conv2d) ToString() string {
	return fmt.Sprintf("conv2d %dx%dx%dx%d stride %dx%d pad %dx%d dilation %dx%d",
		l.nout, l.nin, l.kernel.H, l.kernel.W, l.stride.H, l.stride.W,
		l.pad.H, l.pad.W, l.dilation.H, l.dilation.W)
}

// 1d convolution over [batch, channels, length] input
type conv1d struct {
	nin, nout int
	kernel    int
	stride    int
	pad       int
	dilation  int
	w, b      *num.Array
}

func newConv1d(nin, nout int, spec LayerSpec) *conv1d {
	return &conv1d{
		nin: nin, nout: nout,
		kernel: spec.Kernel.H, stride: spec.Stride.H, pad: spec.Kernel.H / 2, dilation: spec.Dilation.H,
		w: num.NewArray(nout, nin, spec.Kernel.H),
		b: num.NewArray(nout),
	}
}

func (l *conv1d) OutShape(in []int) []int {
	return []int{in[0], l.nout, num.ConvSize(in[2], l.kernel, l.stride, l.pad, l.dilation)}
}

func (l *conv1d) Fprop(x *num.Array, train bool) *num.Array {
	return num.Conv1d(x, l.w, l.b, l.stride, l.pad, l.dilation)
}

func (l *conv1d) Params() (W, B *num.Array) { return l.w, l.b }

func (l *conv1d) SetParams(W, B *num.Array) error {
	if err := setParams(l.w, W, "conv1d weight"); err != nil {
		return err
	}
	return setParams(l.b, B, "conv1d bias")
}

func (l *conv1d) InitWeights(rng *rand.Rand, xavier bool) {
	fanIn := l.nin * l.kernel
	if xavier {
		xavierUniform(l.w, fanIn, l.nout*l.kernel, rng)
	} else {
		scaledUniform(l.w, fanIn, rng)
	}
	scaledUniform(l.b, fanIn, rng)
}

func (l *conv1d) ToString() string {
	return fmt.Sprintf("conv1d %dx%dx%d stride %d pad %d dilation %d",
		l.nout, l.nin, l.kernel, l.stride, l.pad, l.dilation)
}

// batch norm over the channel axis, for 3d or 4d input
type batchNorm struct {
	channels     int
	weight, bias *num.Array
	runMean      *num.Array
	runVar       *num.Array
	eps          float64
	momentum     float64
}

func newBatchNorm(channels int) *batchNorm {
	l := &batchNorm{
		channels: channels,
		weight:   num.NewArray(channels),
		bias:     num.NewArray(channels),
		runMean:  num.NewArray(channels),
		runVar:   num.NewArray(channels),
		eps:      1e-5,
		momentum: 0.1,
	}
	l.weight.Fill(1)
	l.runVar.Fill(1)
	return l
}

func (l *batchNorm) OutShape(in []int) []int { return in }

func (l *batchNorm) Fprop(x *num.Array, train bool) *num.Array {
	if !train {
		return num.BatchNorm(x, l.weight, l.bias, l.runMean, l.runVar, l.eps)
	}
	mean, variance := num.BatchStats(x)
	cnt := float64(x.Size() / l.channels)
	for i := range l.runMean.Data {
		l.runMean.Data[i] = (1-l.momentum)*l.runMean.Data[i] + l.momentum*mean.Data[i]
		// running variance uses the unbiased estimate
		l.runVar.Data[i] = (1-l.momentum)*l.runVar.Data[i] + l.momentum*variance.Data[i]*cnt/(cnt-1)
	}
	return num.BatchNorm(x, l.weight, l.bias, mean, variance, l.eps)
}

func (l *batchNorm) Params() (W, B *num.Array) { return l.weight, l.bias }

func (l *batchNorm) SetParams(W, B *num.Array) error {
	if err := setParams(l.weight, W, "batchNorm weight"); err != nil {
		return err
	}
	return setParams(l.bias, B, "batchNorm bias")
}

// learned scale and shift start at identity; init scheme does not apply
func (l *batchNorm) InitWeights(rng *rand.Rand, xavier bool) {}

func (l *batchNorm) ToString() string {
	return fmt.Sprintf("batchNorm %d", l.channels)
}

// leaky or standard relu activation
type activation struct {
	leaky bool
}

const leakySlope = 0.01

func (l *activation) OutShape(in []int) []int { return in }

func (l *activation) Fprop(x *num.Array, train bool) *num.Array {
	if l.leaky {
		return num.LeakyRelu(x, leakySlope)
	}
	return num.Relu(x)
}

func (l *activation) ToString() string {
	if l.leaky {
		return "lrelu"
	}
	return "relu"
}

// ceil mode max pooling, window = stride
type maxPool2d struct {
	size Size
}

func (l *maxPool2d) OutShape(in []int) []int {
	return []int{in[0], in[1], num.PoolSize(in[2], l.size.H), num.PoolSize(in[3], l.size.W)}
}

func (l *maxPool2d) Fprop(x *num.Array, train bool) *num.Array {
	return num.MaxPool2d(x, [2]int{l.size.H, l.size.W})
}

func (l *maxPool2d) ToString() string {
	return fmt.Sprintf("maxPool %dx%d", l.size.H, l.size.W)
}

type maxPool1d struct {
	size int
}

func (l *maxPool1d) OutShape(in []int) []int {
	return []int{in[0], in[1], num.PoolSize(in[2], l.size)}
}

func (l *maxPool1d) Fprop(x *num.Array, train bool) *num.Array {
	return num.MaxPool1d(x, l.size)
}

func (l *maxPool1d) ToString() string {
	return fmt.Sprintf("maxPool %d", l.size)
}

// flatten reshapes to [batch, features]
type flatten struct{}

func (l *flatten) OutShape(in []int) []int {
	return []int{in[0], num.Prod(in[1:])}
}

func (l *flatten) Fprop(x *num.Array, train bool) *num.Array {
	return x.Reshape(x.Shape[0], -1)
}

func (l *flatten) ToString() string { return "flatten" }

// dropout regularization, identity when evaluating
type dropout struct {
	prob float64
	rng  *rand.Rand
}

func (l *dropout) OutShape(in []int) []int { return in }

func (l *dropout) Fprop(x *num.Array, train bool) *num.Array {
	if !train {
		return x
	}
	return num.Dropout(x, l.prob, l.rng)
}

func (l *dropout) ToString() string {
	return fmt.Sprintf("dropout %.2f", l.prob)
}

// linear fully connected output head
type linear struct {
	nin, nout int
	w, b      *num.Array
}

func newLinear(nin, nout int) *linear {
	return &linear{nin: nin, nout: nout, w: num.NewArray(nout, nin), b: num.NewArray(nout)}
}

func (l *linear) OutShape(in []int) []int {
	return []int{in[0], l.nout}
}

func (l *linear) Fprop(x *num.Array, train bool) *num.Array {
	return num.Linear(x, l.w, l.b)
}

func (l *linear) Params() (W, B *num.Array) { return l.w, l.b }

func (l *linear) SetParams(W, B *num.Array) error {
	if err := setParams(l.w, W, "linear weight"); err != nil {
		return err
	}
	return setParams(l.b, B, "linear bias")
}

func (l *linear) InitWeights(rng *rand.Rand, xavier bool) {
	if xavier {
		xavierUniform(l.w, l.nin, l.nout, rng)
		l.b.Fill(0.01)
	} else {
		scaledUniform(l.w, l.nin, rng)
		scaledUniform(l.b, l.nin, rng)
	}
}

func (l *linear) ToString() string {
	return fmt.Sprintf("linear %dx%d", l.nout, l.nin)
}
