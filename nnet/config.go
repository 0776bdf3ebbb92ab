// Package nnet contains routines for constructing convolutional classifier
// and regressor architectures for price trend prediction, either from
// rasterized OHLC chart images (2d mode) or raw multivariate time series
// windows (1d mode). Training and data generation are external.
package nnet

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Directory for config files and snapshots
var DataDir = "data"

// Batch norm placement within a block
const (
	BNBeforeRelu = "bn_bf_relu"
	BNAfterRelu  = "bn_af_relu"
	BNAfterPool  = "bn_af_mp"
)

// Recognized regression target labels. An empty label selects the two class
// up/down classification head.
const (
	RegressRawReturn   = "raw_ret"
	RegressVolAdjusted = "vol_adjust_ret"
)

// Default base channel count for the first conv block
const DefaultInplanes = 64

// Input sizes per window size: rows x cols of the chart image in 2d mode,
// feature channels x sequence length in 1d mode. Only these window sizes
// are valid.
var (
	inputSizes2D = map[int]InputGeometry{5: {32, 15}, 20: {64, 60}, 60: {96, 180}}
	inputSizes1D = map[int]InputGeometry{5: {6, 5}, 20: {6, 20}, 60: {6, 60}}
)

// Size is a per axis setting for one conv layer. 1d architectures use only
// the H field.
type Size struct {
	H, W int
}

// Sq returns a square 2d size.
func Sq(n int) Size { return Size{H: n, W: n} }

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.H, s.W)
}

// ParseSize converts a HxW string, a single value sets just the H axis.
func ParseSize(val string) (s Size, err error) {
	h, w, ok := strings.Cut(val, "x")
	if s.H, err = strconv.Atoi(strings.TrimSpace(h)); err != nil {
		return s, err
	}
	if !ok {
		return s, nil
	}
	s.W, err = strconv.Atoi(strings.TrimSpace(w))
	return s, err
}

// ParseSizeList converts a comma separated list of HxW settings. An empty
// string gives a nil list.
func ParseSizeList(val string) ([]Size, error) {
	if strings.TrimSpace(val) == "" {
		return nil, nil
	}
	var list []Size
	for _, field := range strings.Split(val, ",") {
		s, err := ParseSize(field)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, nil
}

func parseIntList(val string) ([]int, error) {
	if strings.TrimSpace(val) == "" {
		return nil, nil
	}
	var list []int
	for _, field := range strings.Split(val, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, nil
}

// InputGeometry is the resolved model input size: height x width in image
// mode, feature channels x sequence length in sequence mode.
type InputGeometry [2]int

// LayerSpec holds the resolved settings for one conv block. The list of
// specs is fixed when the model is created and immutable afterwards.
type LayerSpec struct {
	Kernel   Size
	Stride   Size
	Dilation Size
	Pool     Size
	Channels int
}

// padding is derived from the kernel by integer halving, per axis
func (s LayerSpec) padding() Size {
	return Size{H: s.Kernel.H / 2, W: s.Kernel.W / 2}
}

// Architecture configuration settings. Scalar fields Kernel, Stride,
// Dilation and Pool are broadcast across all layers unless the matching
// per layer list is set.
type Config struct {
	WindowSize   int
	LayerNumber  int
	Inplanes     int
	DropProb     float64
	BatchNorm    bool
	Xavier       bool
	LeakyRelu    bool
	TS1D         bool
	DoubleConv   bool
	BNLoc        string
	Regression   string
	Channels     []int
	Kernel       Size
	Stride       Size
	Dilation     Size
	Pool         Size
	KernelList   []Size
	StrideList   []Size
	DilationList []Size
	PoolList     []Size
	RandSeed     int64
}

// DefaultConfig returns the 2d chart image configuration with the standard
// settings: 5x3 kernels, 2x1 pooling, batch norm before the activation,
// Xavier init and leaky relu.
func DefaultConfig(ws, layers int) Config {
	return Config{
		WindowSize:  ws,
		LayerNumber: layers,
		Inplanes:    DefaultInplanes,
		DropProb:    0.5,
		BatchNorm:   true,
		Xavier:      true,
		LeakyRelu:   true,
		BNLoc:       BNBeforeRelu,
		Kernel:      Size{5, 3},
		Stride:      Size{1, 1},
		Dilation:    Size{1, 1},
		Pool:        Size{2, 1},
	}
}

// DefaultConfig1D returns the time series configuration. Sequence blocks
// always use batch norm before a leaky relu, so the placement and
// activation toggles have no effect in this mode.
func DefaultConfig1D(ws, layers int) Config {
	return Config{
		WindowSize:  ws,
		LayerNumber: layers,
		Inplanes:    DefaultInplanes,
		DropProb:    0.5,
		BatchNorm:   true,
		Xavier:      true,
		LeakyRelu:   true,
		TS1D:        true,
		BNLoc:       BNBeforeRelu,
		Kernel:      Size{H: 3},
		Stride:      Size{H: 1},
		Dilation:    Size{H: 1},
		Pool:        Size{H: 2},
	}
}

// Benchmark layer counts per window size
var baselineLayers = map[int]int{5: 2, 20: 3, 60: 4}

// BaselineConfig returns the benchmark 2d architecture for the given window
// size. The window 60 model downsamples in its first block with a 3x1
// stride and 2x1 dilation.
func BaselineConfig(ws int) Config {
	c := DefaultConfig(ws, baselineLayers[ws])
	if ws == 60 {
		c.StrideList = []Size{{3, 1}, {1, 1}, {1, 1}, {1, 1}}
		c.DilationList = []Size{{2, 1}, {1, 1}, {1, 1}, {1, 1}}
	}
	return c
}

func (c Config) validate() error {
	if c.LayerNumber < 1 {
		return errors.Errorf("config: layer number %d out of range", c.LayerNumber)
	}
	sizes := inputSizes2D
	if c.TS1D {
		sizes = inputSizes1D
	}
	if _, ok := sizes[c.WindowSize]; !ok {
		return errors.Errorf("config: invalid window size %d", c.WindowSize)
	}
	switch c.Regression {
	case "", RegressRawReturn, RegressVolAdjusted:
	default:
		return errors.Errorf("config: invalid regression label %q", c.Regression)
	}
	switch c.BNLoc {
	case BNBeforeRelu, BNAfterRelu, BNAfterPool:
	default:
		return errors.Errorf("config: invalid batch norm location %q", c.BNLoc)
	}
	if c.DropProb < 0 || c.DropProb >= 1 {
		return errors.Errorf("config: drop probability %g out of range", c.DropProb)
	}
	return nil
}

// inputGeometry resolves the model input size from the window size table.
func (c Config) inputGeometry() (InputGeometry, error) {
	sizes := inputSizes2D
	if c.TS1D {
		sizes = inputSizes1D
	}
	geom, ok := sizes[c.WindowSize]
	if !ok {
		return InputGeometry{}, errors.Errorf("config: invalid window size %d", c.WindowSize)
	}
	return geom, nil
}

// Load config from json file under DataDir
func LoadConfig(name string) (c Config, err error) {
	filePath := path.Join(DataDir, name)
	f, err := os.Open(filePath)
	if err != nil {
		return c, err
	}
	defer f.Close()
	klog.Infof("loading network config from %s", name)
	err = json.NewDecoder(f).Decode(&c)
	return c, err
}

// Save config to json file under DataDir
func (c Config) Save(name string) error {
	filePath := path.Join(DataDir, "."+name)
	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	klog.Infof("saving network config to %s", name)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err = enc.Encode(c); err != nil {
		f.Close()
		return err
	}
	f.Close()
	return os.Rename(filePath, path.Join(DataDir, name))
}

func (c Config) Fields() []string {
	st := reflect.TypeOf(c)
	fld := make([]string, st.NumField())
	for i := range fld {
		fld[i] = st.Field(i).Name
	}
	return fld
}

func (c Config) Get(key string) interface{} {
	s := reflect.ValueOf(c)
	return s.FieldByName(key).Interface()
}

func (c Config) String() string {
	str := []string{"== Config =="}
	for _, key := range c.Fields() {
		str = append(str, fmt.Sprintf("%-14s: %v", key, c.Get(key)))
	}
	return strings.Join(str, "\n")
}

// SetString updates the named field from its string form. Size fields use
// the HxW format, list fields a comma separated list.
func (c Config) SetString(key, val string) (Config, error) {
	s := reflect.ValueOf(&c).Elem()
	f := s.FieldByName(key)
	var err error
	switch f.Type() {
	case reflect.TypeOf(Size{}):
		var size Size
		if size, err = ParseSize(val); err == nil {
			f.Set(reflect.ValueOf(size))
		}
	case reflect.TypeOf([]Size(nil)):
		var list []Size
		if list, err = ParseSizeList(val); err == nil {
			f.Set(reflect.ValueOf(list))
		}
	case reflect.TypeOf([]int(nil)):
		var list []int
		if list, err = parseIntList(val); err == nil {
			f.Set(reflect.ValueOf(list))
		}
	default:
		switch f.Type().Kind() {
		case reflect.Int, reflect.Int64:
			var x int64
			if x, err = strconv.ParseInt(val, 10, 64); err == nil {
				f.SetInt(x)
			}
		case reflect.Float64:
			var x float64
			if x, err = strconv.ParseFloat(val, 64); err == nil {
				f.SetFloat(x)
			}
		case reflect.String:
			f.SetString(val)
		default:
			return c, fmt.Errorf("invalid type for SetString: %v", f.Type().Kind())
		}
	}
	return c, err
}

func (c Config) SetBool(key string, val bool) (Config, error) {
	s := reflect.ValueOf(&c).Elem()
	f := s.FieldByName(key)
	if f.Type().Kind() == reflect.Bool {
		f.SetBool(val)
		return c, nil
	}
	return c, fmt.Errorf("invalid type for SetBool: %v", f.Type().Kind())
}
