package config

import (
	"net/url"
	"testing"

	"github.com/helga-agentur/contentloader"
)

func TestBuildProducers(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	producers, err := BuildProducers(cfg, func(name string) contentloader.HandleFunc {
		return func(contentloader.StatusUpdate) {}
	})
	if err != nil {
		t.Fatalf("BuildProducers() error = %v", err)
	}
	if len(producers) != 3 {
		t.Fatalf("producers = %d, want 3", len(producers))
	}

	wantNames := []string{"article-list", "sidebar", "teaser"}
	for i, want := range wantNames {
		if got := producers[i].Name(); got != want {
			t.Errorf("producers[%d].Name() = %q, want %q", i, got, want)
		}
	}
}

func TestBuildProducers_NilFactory(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := BuildProducers(cfg, nil); err == nil {
		t.Error("BuildProducers(nil factory) error = nil, want error")
	}
}

func TestBuildAssembler(t *testing.T) {
	rc := contentloader.RequestContext{
		Params: url.Values{"page": {"2"}, "tag": {"sports"}},
	}

	tests := []struct {
		name string
		src  SourceConfig
		want string
	}{
		{
			name: "static url",
			src:  SourceConfig{URL: "https://example.com/api/sidebar"},
			want: "https://example.com/api/sidebar",
		},
		{
			name: "base url merges params",
			src:  SourceConfig{BaseURL: "https://example.com/api/articles"},
			want: "https://example.com/api/articles?page=2&tag=sports",
		},
		{
			name: "template renders params",
			src:  SourceConfig{Template: "https://example.com/api/teaser?tag={{.tag}}"},
			want: "https://example.com/api/teaser?tag=sports",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assemble, err := buildAssembler(tt.src)
			if err != nil {
				t.Fatalf("buildAssembler() error = %v", err)
			}
			req := assemble(rc)
			if req == nil || req.URL != tt.want {
				t.Errorf("assemble() = %+v, want URL %q", req, tt.want)
			}
		})
	}
}

func TestBuildProducers_TagAttachesData(t *testing.T) {
	cfg, err := Parse([]byte(`
sources:
  - name: tagged
    url: https://example.com/api
    tag: replace
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	assemble, err := buildAssembler(cfg.Sources[0])
	if err != nil {
		t.Fatalf("buildAssembler() error = %v", err)
	}
	assemble = contentloader.Tagged(assemble, cfg.Sources[0].Tag)

	req := assemble(contentloader.RequestContext{})
	if req == nil || req.Data != "replace" {
		t.Errorf("assemble() = %+v, want data %q", req, "replace")
	}
}
