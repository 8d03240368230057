package builders

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/rushteam/prodrec/catalog"
	"github.com/rushteam/prodrec/config"
	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pipeline"
	"github.com/rushteam/prodrec/store"
)

const products = `product_id,title,category,popularity_score,tags
S1,Runner,shoes,90,"running, sale"
S2,Boot,shoes,70,"winter"
B1,Tote,bags,85,"eco, sale"
B2,Pack,bags,60,"running"
J1,Parka,outerwear,95,"winter"
H1,Cap,hats,20,"summer"
`

func rctxFor(t *testing.T) *core.RecommendContext {
	t.Helper()
	c, err := catalog.Load(strings.NewReader(products), nil)
	if err != nil {
		t.Fatalf("catalog.Load() error = %v", err)
	}
	return &core.RecommendContext{UserID: "U4", Catalog: c}
}

func ids(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func buildFromYAML(t *testing.T, doc string) *pipeline.Pipeline {
	t.Helper()
	cfg, err := pipeline.ParseYAML([]byte(doc))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	p, err := config.BuildPipeline(cfg)
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}
	return p
}

func TestSupportedTypes(t *testing.T) {
	want := []string{
		"filter",
		"rank.sort",
		"rank.tag_boost",
		"recall.category_quota",
		"recall.diversity",
		"recall.fanout",
		"recall.trending",
		"rerank.dedup",
		"rerank.diversity",
		"rerank.topn",
	}
	if got := config.SupportedTypes(); !reflect.DeepEqual(got, want) {
		t.Errorf("SupportedTypes() = %v, want %v", got, want)
	}
}

func TestColdStartFromYAML(t *testing.T) {
	p := buildFromYAML(t, `
pipeline:
  name: cold_start
  nodes:
    - type: recall.fanout
      config:
        max_concurrent: 2
        sources:
          - type: diversity
            top_n: 3
          - type: trending
            top_n: 3
    - type: rerank.topn
      config:
        n: 3
`)
	if p.Name != "cold_start" || len(p.Nodes) != 2 {
		t.Fatalf("pipeline = %+v", p)
	}
	items, err := p.Run(context.Background(), rctxFor(t), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got, want := ids(items), []string{"J1", "S1", "B1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Run() = %v, want %v", got, want)
	}
}

func TestPersonalizedFromYAMLWithFilters(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	data, _ := json.Marshal([]string{"B1"})
	_ = s.Set(ctx, "blacklist", data)
	UseStore(s)
	t.Cleanup(func() { UseStore(nil) })

	p := buildFromYAML(t, `
pipeline:
  name: personalized
  nodes:
    - type: recall.category_quota
      config: {top_n: 6, boost: 100}
    - type: rank.tag_boost
      config: {boost: 100}
    - type: rank.sort
    - type: filter
      config:
        filters:
          - type: blacklist
            item_ids: [J1]
            key: blacklist
          - type: expr
            expr: 'item.category != "hats"'
    - type: rerank.diversity
    - type: rerank.topn
      config: {n: 3}
`)

	rctx := rctxFor(t)
	prof := core.NewUserProfile("U4")
	prof.TagCounts.Add("winter", 1)
	rctx.User = prof

	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// winter +100：J1(拉黑)、S2 领先；B1 拉黑；H1 被表达式过滤；同类目只留一个
	if got, want := ids(items), []string{"S2", "B2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Run() = %v, want %v", got, want)
	}
}

func TestClickedFilterNeedsStore(t *testing.T) {
	UseStore(nil)
	_, err := BuildFilterNode(map[string]any{
		"filters": []any{map[string]any{"type": "clicked"}},
	})
	if err == nil {
		t.Error("BuildFilterNode(clicked) without store expected error")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown node", "pipeline:\n  nodes:\n    - type: rank.lr\n"},
		{"unknown source", "pipeline:\n  nodes:\n    - type: recall.fanout\n      config:\n        sources:\n          - type: ann\n"},
		{"fanout without sources", "pipeline:\n  nodes:\n    - type: recall.fanout\n"},
		{"bad expr", "pipeline:\n  nodes:\n    - type: filter\n      config:\n        filters:\n          - type: expr\n            expr: 'item.category =='\n"},
		{"unknown filter", "pipeline:\n  nodes:\n    - type: filter\n      config:\n        filters:\n          - type: exposed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := pipeline.ParseYAML([]byte(tt.doc))
			if err != nil {
				t.Fatalf("ParseYAML() error = %v", err)
			}
			if _, err := config.BuildPipeline(cfg); err == nil {
				t.Error("BuildPipeline() expected error")
			}
		})
	}
}

func TestValidatePipelineConfig_UnregisteredType(t *testing.T) {
	cfg, err := pipeline.ParseYAML([]byte("pipeline:\n  nodes:\n    - type: recall.trending\n    - type: rank.lr\n"))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	err = config.ValidatePipelineConfig(cfg)
	de := core.GetDomainError(err)
	if de == nil || de.Code != core.ErrorCodeInvalidInput || de.Module != core.ModuleConfig {
		t.Fatalf("ValidatePipelineConfig() = %v, want config INVALID_INPUT", err)
	}
	for _, want := range []string{"#1", `"rank.lr"`, "recall.trending"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
