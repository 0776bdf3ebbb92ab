// Package web serves the architecture inspector: browse the benchmark
// configurations, edit settings and view the resolved name, shape
// propagation and parameter counts of the model they produce.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"k8s.io/klog/v2"
)

//go:embed assets
var assetFS embed.FS

// Template and main menu definition
type Templates struct {
	*template.Template
	Menu    []Link
	Options []Link
}

type Link struct {
	Url      string
	Name     string
	Selected bool
	Submit   bool
}

// Load and parse templates and initialise main menu
func NewTemplates() (*Templates, error) {
	var err error
	t := &Templates{Menu: []Link{}, Options: []Link{}}
	t.Template, err = template.ParseFS(assetFS, "assets/*.html")
	if err != nil {
		return nil, err
	}
	t.AddMenuItem(Link{Url: "/arch", Name: "architecture"})
	t.AddMenuItem(Link{Url: "/config", Name: "config"})
	return t, nil
}

func (t *Templates) Clone() *Templates {
	return &Templates{
		Template: t.Template,
		Menu:     append([]Link{}, t.Menu...),
		Options:  append([]Link{}, t.Options...),
	}
}

func (t *Templates) Select(url string) *Templates {
	for i, key := range t.Menu {
		t.Menu[i].Selected = strings.HasPrefix(key.Url, url)
	}
	return t
}

func (t *Templates) AddMenuItem(l Link) *Templates {
	t.Menu = append(t.Menu, l)
	return t
}

func (t *Templates) AddOption(l Link) *Templates {
	t.Options = append(t.Options, l)
	return t
}

func logError(w http.ResponseWriter, err error) {
	klog.Error(err)
	http.Error(w, fmt.Sprint(err), http.StatusInternalServerError)
}
