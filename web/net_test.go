package web

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/qamq/2025cnnproj/nnet"
)

func newTestConfig(t *testing.T) *Config {
	nnet.DataDir = t.TempDir()
	conf, err := NewConfig("test")
	if err != nil {
		t.Fatal(err)
	}
	return conf
}

func TestArchPage(t *testing.T) {
	conf := newTestConfig(t)
	tmpl, err := NewTemplates()
	if err != nil {
		t.Fatal(err)
	}
	page := NewArchPage(tmpl.Clone(), conf)

	w := httptest.NewRecorder()
	page.Base()(w, httptest.NewRequest("GET", "/arch", nil))
	if w.Code != 200 {
		t.Errorf("got status %d expect 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "D20L3") {
		t.Errorf("page is missing the model name: %s", body)
	}
	if !strings.Contains(body, "conv2d") {
		t.Error("page is missing the layer table")
	}
}

func TestConfigPage(t *testing.T) {
	conf := newTestConfig(t)
	tmpl, err := NewTemplates()
	if err != nil {
		t.Fatal(err)
	}
	page := NewConfigPage(tmpl.Clone(), conf)

	w := httptest.NewRecorder()
	page.Base()(w, httptest.NewRequest("GET", "/config", nil))
	if w.Code != 200 {
		t.Errorf("got status %d expect 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "WindowSize") {
		t.Error("page is missing the settings form")
	}
}

func TestFieldValueRoundTrip(t *testing.T) {
	c := nnet.BaselineConfig(60)
	for _, key := range []string{"Kernel", "StrideList", "DilationList", "Channels"} {
		val := fieldValue(c.Get(key))
		if _, err := c.SetString(key, val); err != nil {
			t.Errorf("field %s value %q does not parse: %v", key, val, err)
		}
	}
}

func TestResolveUpdate(t *testing.T) {
	upd := resolveUpdate(nnet.BaselineConfig(20))
	if upd.Error != "" {
		t.Fatal(upd.Error)
	}
	if !strings.HasPrefix(upd.Name, "D20L3") {
		t.Errorf("unexpected name %s", upd.Name)
	}
	if len(upd.Rows) == 0 || upd.Params == 0 {
		t.Error("missing summary rows")
	}

	bad := nnet.BaselineConfig(20)
	bad.WindowSize = 7
	if upd = resolveUpdate(bad); upd.Error == "" {
		t.Error("expected an error for an invalid window size")
	}
}
