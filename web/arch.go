package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/qamq/2025cnnproj/nnet"
	"github.com/qamq/2025cnnproj/num"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type ArchPage struct {
	*Templates
	conf *Config
}

// Base data for handler functions to display the resolved architecture
func NewArchPage(t *Templates, conf *Config) *ArchPage {
	p := &ArchPage{conf: conf}
	p.Templates = t.Select("/arch")
	return p
}

// Handler function for the arch template
func (p *ArchPage) Base() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.conf.Lock()
		defer p.conf.Unlock()
		if err := p.ExecuteTemplate(w, "arch", p); err != nil {
			logError(w, err)
		}
	}
}

// archUpdate is the websocket reply to a posted configuration.
type archUpdate struct {
	Name   string            `json:"name"`
	Error  string            `json:"error,omitempty"`
	Rows   []nnet.SummaryRow `json:"rows,omitempty"`
	Params int               `json:"params"`
}

// Handler function for the websocket connection: each received config
// message is resolved and answered with the name and layer table.
func (p *ArchPage) Websocket() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logError(w, err)
			return
		}
		defer conn.Close()
		for {
			var c nnet.Config
			if err := conn.ReadJSON(&c); err != nil {
				return
			}
			if err := conn.WriteJSON(resolveUpdate(c)); err != nil {
				return
			}
		}
	}
}

func resolveUpdate(c nnet.Config) archUpdate {
	m, err := nnet.New(c)
	if err != nil {
		return archUpdate{Error: err.Error()}
	}
	n, err := m.Build(num.CPU)
	if err != nil {
		return archUpdate{Name: m.Name, Error: err.Error()}
	}
	return archUpdate{Name: n.Name, Rows: n.SummaryRows(), Params: n.ParamCount()}
}

func (p *ArchPage) Heading() template.HTML {
	return template.HTML("model: <b>" + p.conf.Model + "</b>")
}

func (p *ArchPage) Name() string {
	m, err := p.conf.Resolve()
	if err != nil {
		return ""
	}
	return m.Name
}

func (p *ArchPage) Err() string {
	if _, err := p.conf.Network(); err != nil {
		return err.Error()
	}
	return ""
}

func (p *ArchPage) Rows() []nnet.SummaryRow {
	n, err := p.conf.Network()
	if err != nil {
		return nil
	}
	return n.SummaryRows()
}

func (p *ArchPage) TotalParams() string {
	n, err := p.conf.Network()
	if err != nil {
		return ""
	}
	return humanize.Comma(int64(n.ParamCount()))
}

// ParamsPlot renders a bar chart of parameters per conv block as inline svg.
func (p *ArchPage) ParamsPlot(width, height int) template.HTML {
	n, err := p.conf.Network()
	if err != nil {
		return ""
	}
	var vals plotter.Values
	var names []string
	for i, block := range n.ConvLayers {
		total := 0
		for _, op := range block.Ops {
			total += nnet.ParamCount(op)
		}
		vals = append(vals, float64(total))
		names = append(names, fmt.Sprintf("block %d", i))
	}
	plt := plot.New()
	bars, err := plotter.NewBarChart(vals, vg.Points(25))
	if err != nil {
		return ""
	}
	bars.Color = plotutil.Color(2)
	bars.LineStyle.Width = 0
	plt.Add(plotter.NewGrid(), bars)
	plt.NominalX(names...)
	plt.Y.Label.Text = "parameters"
	return writePlot(plt, width, height)
}

func writePlot(p *plot.Plot, w, h int) template.HTML {
	var buf bytes.Buffer
	writer, err := p.WriterTo(vg.Points(float64(w)), vg.Points(float64(h)), "svg")
	if err != nil {
		return ""
	}
	writer.WriteTo(&buf)
	return template.HTML(buf.String())
}
