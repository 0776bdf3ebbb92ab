// Command summary loads a model configuration, builds the network and
// prints the canonical name and the layer by layer parameter table.
// Optionally restores weights from a saved snapshot first.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/qamq/2025cnnproj/nnet"
	"github.com/qamq/2025cnnproj/num"
)

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	fs.StringVar(&nnet.DataDir, "datadir", nnet.DataDir, "config and snapshot directory")
	window := fs.Int("window", 0, "lookback window size")
	layers := fs.Int("layers", 0, "number of conv blocks")
	inplanes := fs.Int("inplanes", 0, "first block output channels")
	drop := fs.Float64("drop", 0, "dropout probability")
	regress := fs.String("regress", "", "regression target label")
	seed := fs.Int64("seed", 0, "random number seed")
	ts1d := fs.Bool("ts1d", false, "time series model")
	stateFile := fs.String("state", "", "snapshot file to restore weights from")
	partial := fs.Bool("partial", false, "restore all conv blocks except the last")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: summary [opts] <model>")
	}
	model := fs.Arg(0)
	conf, err := nnet.LoadConfig(model + ".json")
	if err != nil {
		return err
	}
	// apply config settings given on the command line
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "window":
			conf.WindowSize = *window
		case "layers":
			conf.LayerNumber = *layers
		case "inplanes":
			conf.Inplanes = *inplanes
		case "drop":
			conf.DropProb = *drop
		case "regress":
			conf.Regression = *regress
		case "seed":
			conf.RandSeed = *seed
		case "ts1d":
			conf.TS1D = *ts1d
		}
	})

	m, err := nnet.New(conf)
	if err != nil {
		return err
	}
	var net *nnet.Network
	if *stateFile != "" {
		s, err := nnet.LoadStateFile(*stateFile)
		if err != nil {
			return err
		}
		if *partial {
			net, err = m.BuildPartialFromState(s, num.CPU)
		} else {
			net, err = m.BuildFromState(s, num.CPU)
		}
		if err != nil {
			return err
		}
	} else {
		if net, err = m.Build(num.CPU); err != nil {
			return err
		}
	}
	fmt.Fprintln(out, net)
	return nil
}

func main() {
	klog.InitFlags(nil)
	nnet.CheckErr(run(os.Args[1:], os.Stdout))
}
