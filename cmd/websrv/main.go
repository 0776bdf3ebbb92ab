// Command websrv serves the architecture inspector web pages.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"k8s.io/klog/v2"

	"github.com/qamq/2025cnnproj/nnet"
	"github.com/qamq/2025cnnproj/web"
)

func main() {
	klog.InitFlags(nil)
	port := flag.Int("port", 8080, "listen port")
	user := flag.String("user", "web", "basic auth user name")
	pass := flag.String("pass", "", "enable basic auth with this password")
	flag.StringVar(&nnet.DataDir, "datadir", nnet.DataDir, "config and snapshot directory")
	flag.Parse()
	model := "baseline"
	if flag.NArg() > 0 {
		model = flag.Arg(0)
	}
	nnet.CheckErr(os.MkdirAll(nnet.DataDir, 0755))

	conf, err := web.NewConfig(model)
	nnet.CheckErr(err)
	t, err := web.NewTemplates()
	nnet.CheckErr(err)

	archPage := web.NewArchPage(t.Clone(), conf)
	configPage := web.NewConfigPage(t.Clone(), conf)

	r := mux.NewRouter()
	r.Handle("/", http.RedirectHandler("/arch", http.StatusFound))
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", web.AssetServer()))

	r.HandleFunc("/arch", archPage.Base())
	r.HandleFunc("/ws", archPage.Websocket())

	r.HandleFunc("/config", configPage.Base())
	r.HandleFunc("/config/load", configPage.Load())
	r.HandleFunc("/config/save", configPage.Save()).Methods("POST")
	r.HandleFunc("/config/reset", configPage.Reset())

	fmt.Printf("serving web page at http://localhost:%d\n", *port)
	http.ListenAndServe(fmt.Sprintf(":%d", *port), web.Auth(r, *user, *pass))
}
