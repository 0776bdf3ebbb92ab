// Command baseline writes the benchmark model configurations for each
// supported window size to the data directory.
package main

import (
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/qamq/2025cnnproj/nnet"
)

func save(conf nnet.Config, name string) {
	m, err := nnet.New(conf)
	nnet.CheckErr(err)
	fmt.Printf("%-12s %s\n", name, m.Name)
	nnet.CheckErr(conf.Save(name))
}

func main() {
	klog.InitFlags(nil)
	flag.StringVar(&nnet.DataDir, "datadir", nnet.DataDir, "config and snapshot directory")
	ts1d := flag.Bool("ts1d", false, "also write the time series variants")
	flag.Parse()
	nnet.CheckErr(os.MkdirAll(nnet.DataDir, 0755))

	for _, ws := range []int{5, 20, 60} {
		conf := nnet.BaselineConfig(ws)
		save(conf, fmt.Sprintf("ws%d.json", ws))
		if *ts1d {
			save(nnet.DefaultConfig1D(ws, conf.LayerNumber), fmt.Sprintf("ws%d_ts.json", ws))
		}
	}
}
