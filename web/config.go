package web

import (
	"fmt"
	"html/template"
	"net/http"
	"os"
	"strings"

	"k8s.io/klog/v2"

	"github.com/qamq/2025cnnproj/nnet"
)

type ConfigPage struct {
	*Templates
	Fields []Field
	conf   *Config
}

type Field struct {
	Name    string
	Value   string
	Error   string
	Boolean bool
	On      bool
}

// Base data for handler functions to view and update the model config
func NewConfigPage(t *Templates, conf *Config) *ConfigPage {
	p := &ConfigPage{conf: conf}
	p.Templates = t.Select("/config")
	p.AddOption(Link{Name: "save", Url: "/config/save", Submit: true})
	p.AddOption(Link{Name: "reset", Url: "/config/reset"})
	p.Fields = getFields(conf.Config)
	return p
}

// Handler function for the config template
func (p *ConfigPage) Base() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.conf.Lock()
		defer p.conf.Unlock()
		if err := p.ExecuteTemplate(w, "config", p); err != nil {
			logError(w, err)
		}
	}
}

// Handler function for the action to switch to another saved model
func (p *ConfigPage) Load() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.conf.Lock()
		defer p.conf.Unlock()
		model := r.FormValue("model")
		conf, err := nnet.LoadConfig(model + ".json")
		if err != nil {
			logError(w, err)
			return
		}
		p.conf.Config = conf
		p.conf.Model = model
		p.Fields = getFields(conf)
		http.Redirect(w, r, "/config", http.StatusFound)
	}
}

// Handler function for the config form save action
func (p *ConfigPage) Save() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.conf.Lock()
		defer p.conf.Unlock()
		r.ParseForm()
		haveErrors := false
		conf := p.conf.Config
		for i, fld := range p.Fields {
			val := r.Form.Get(fld.Name)
			var err error
			if fld.Boolean {
				p.Fields[i].On = (val == "true")
				conf, err = conf.SetBool(fld.Name, p.Fields[i].On)
			} else {
				p.Fields[i].Value = val
				conf, err = conf.SetString(fld.Name, val)
			}
			p.Fields[i].Error = ""
			if err != nil {
				p.Fields[i].Error = "invalid syntax"
				haveErrors = true
			}
		}
		if !haveErrors {
			// reject settings which do not resolve to a model
			if _, err := nnet.New(conf); err != nil {
				klog.Error(err)
				http.Error(w, fmt.Sprint(err), http.StatusBadRequest)
				return
			}
			if err := conf.Save(p.conf.Model + ".json"); err != nil {
				logError(w, err)
				return
			}
			p.conf.Config = conf
		}
		http.Redirect(w, r, "/config", http.StatusFound)
	}
}

// Handler function for the config form reset action: restores the benchmark
// settings for the current window size.
func (p *ConfigPage) Reset() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.conf.Lock()
		defer p.conf.Unlock()
		conf := nnet.BaselineConfig(p.conf.WindowSize)
		if p.conf.TS1D {
			conf = nnet.DefaultConfig1D(p.conf.WindowSize, p.conf.LayerNumber)
		}
		if err := conf.Save(p.conf.Model + ".json"); err != nil {
			logError(w, err)
			return
		}
		p.conf.Config = conf
		p.Fields = getFields(conf)
		http.Redirect(w, r, "/config", http.StatusFound)
	}
}

func (p *ConfigPage) Heading() template.HTML {
	entries, err := os.ReadDir(nnet.DataDir)
	if err != nil {
		klog.Error(err)
		return ""
	}
	html := `model: <select name="model" class="model-select" form="loadConfig" onchange="this.form.submit()">`
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			name = strings.TrimSuffix(name, ".json")
			if name == p.conf.Model {
				html += "<option selected>" + name + "</option>"
			} else {
				html += "<option>" + name + "</option>"
			}
		}
	}
	html += "</select>"
	return template.HTML(html)
}

func getFields(conf nnet.Config) []Field {
	var flds []Field
	for _, key := range conf.Fields() {
		f := Field{Name: key, Value: fieldValue(conf.Get(key))}
		f.On, f.Boolean = conf.Get(key).(bool)
		flds = append(flds, f)
	}
	return flds
}

// fieldValue formats a setting so that SetString parses it back
func fieldValue(v interface{}) string {
	switch val := v.(type) {
	case []nnet.Size:
		strs := make([]string, len(val))
		for i, s := range val {
			strs[i] = s.String()
		}
		return strings.Join(strs, ",")
	case []int:
		return strings.Trim(strings.Join(strings.Fields(fmt.Sprint(val)), ","), "[]")
	default:
		return fmt.Sprint(v)
	}
}
