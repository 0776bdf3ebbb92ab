package nnet

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/exp/rand"

	"github.com/qamq/2025cnnproj/num"
)

// Input channels of the first conv block: a single channel rasterized chart
// in image mode, six OHLCV derived features in sequence mode.
const (
	imageInChannels    = 1
	sequenceInChannels = 6
)

// Network is a built architecture: the conv block stack plus flatten,
// dropout and the linear output head. It exclusively owns its parameter
// arrays. Construction is all or nothing; a Network is only returned once
// fully assembled and initialized.
type Network struct {
	Config
	Name       string
	ConvLayers []*Block
	inShape    []int
	flat       *flatten
	drop       *dropout
	fc         *linear
	dev        num.Device
}

// newNetwork assembles the block stack and output head for the given
// resolved configuration. Weight initialization: image mode applies the
// Xavier scheme only when configured, falling back to fan-in scaled uniform
// weights; sequence mode always applies the Xavier scheme.
func newNetwork(c Config, specs []LayerSpec, geom InputGeometry, name string) (*Network, error) {
	plan, err := channelPlan(c)
	if err != nil {
		return nil, err
	}
	fcSize, err := FlattenWidth(c, specs, geom)
	if err != nil {
		return nil, err
	}
	seed := c.RandSeed
	if seed <= 0 {
		seed = time.Now().UTC().UnixNano()
	}
	rng := rand.New(rand.NewSource(uint64(seed)))

	n := &Network{Config: c, Name: name}
	prev := imageInChannels
	if c.TS1D {
		prev = sequenceInChannels
		n.inShape = []int{sequenceInChannels, geom[1]}
	} else {
		n.inShape = []int{imageInChannels, geom[0], geom[1]}
	}
	for i, chanls := range plan {
		n.ConvLayers = append(n.ConvLayers, buildBlock(prev, chanls, specs[i], c))
		prev = chanls
	}
	n.flat = &flatten{}
	n.drop = &dropout{prob: c.DropProb, rng: rng}
	headWidth := 2
	if c.Regression != "" {
		headWidth = 1
	}
	n.fc = newLinear(fcSize, headWidth)

	xavier := c.Xavier || c.TS1D
	for _, block := range n.ConvLayers {
		for _, op := range block.Ops {
			if p, ok := op.(ParamLayer); ok {
				p.InitWeights(rng, xavier)
			}
		}
	}
	n.fc.InitWeights(rng, xavier)
	return n, nil
}

// InShape is the per sample input shape, without the batch dimension.
func (n *Network) InShape() []int {
	return append([]int(nil), n.inShape...)
}

// HeadWidth is the output width of the linear head: 1 in regression mode,
// 2 for classification.
func (n *Network) HeadWidth() int { return n.fc.nout }

// FlattenSize is the feature width feeding the output head.
func (n *Network) FlattenSize() int { return n.fc.nin }

// To moves the network parameters to the given device and returns the
// network. Arrays live in host memory so this only records the placement.
func (n *Network) To(dev num.Device) *Network {
	n.dev = dev
	return n
}

// Fprop feeds the input through the block stack, flatten, dropout and the
// output head, returning raw unnormalized scores. Input shape is
// [batch, channels, rows, cols] in image mode, [batch, channels, length]
// in sequence mode.
func (n *Network) Fprop(x *num.Array, train bool) *num.Array {
	if !num.SameShape(x.Shape[1:], n.inShape) {
		panic(fmt.Sprintf("Fprop: input shape %v does not match %v", x.Shape[1:], n.inShape))
	}
	for _, block := range n.ConvLayers {
		x = block.Fprop(x, train)
	}
	x = n.flat.Fprop(x, train)
	x = n.drop.Fprop(x, train)
	return n.fc.Fprop(x, train)
}

// tail ops after the conv blocks, in forward order
func (n *Network) tail() []Layer {
	return []Layer{n.flat, n.drop, n.fc}
}

// ParamCount is the total number of parameters in the network.
func (n *Network) ParamCount() int {
	total := 0
	for _, block := range n.ConvLayers {
		for _, op := range block.Ops {
			total += ParamCount(op)
		}
	}
	return total + ParamCount(n.fc)
}

// SummaryRow describes one op for the diagnostic summary.
type SummaryRow struct {
	Op       string
	OutShape []int
	Params   int
}

// SummaryRows walks the stack and reports each op with its output shape
// (batch size 1) and parameter count. Inspection only.
func (n *Network) SummaryRows() []SummaryRow {
	shape := append([]int{1}, n.inShape...)
	var rows []SummaryRow
	for _, block := range n.ConvLayers {
		for _, op := range block.Ops {
			shape = op.OutShape(shape)
			rows = append(rows, SummaryRow{Op: op.ToString(), OutShape: shape[1:], Params: ParamCount(op)})
		}
	}
	for _, op := range n.tail() {
		shape = op.OutShape(shape)
		rows = append(rows, SummaryRow{Op: op.ToString(), OutShape: shape[1:], Params: ParamCount(op)})
	}
	return rows
}

// Summary returns the human readable architecture description: name, input
// shape and the layer by layer table with parameter counts.
func (n *Network) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", n.Name)
	fmt.Fprintf(&sb, "device: %s  input: %v\n", n.dev, n.inShape)
	for i, row := range n.SummaryRows() {
		fmt.Fprintf(&sb, "%2d: %-42s %-16v %10s\n", i, row.Op,
			row.OutShape, humanize.Comma(int64(row.Params)))
	}
	fmt.Fprintf(&sb, "total params: %s\n", humanize.Comma(int64(n.ParamCount())))
	return sb.String()
}

func (n *Network) String() string {
	return n.Summary()
}

// Exit in case of error
func CheckErr(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
