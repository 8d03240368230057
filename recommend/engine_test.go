package recommend

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rushteam/prodrec/catalog"
	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/filter"
	"github.com/rushteam/prodrec/metrics"
	"github.com/rushteam/prodrec/pipeline"
	"github.com/rushteam/prodrec/profile"
	"github.com/rushteam/prodrec/recall"
	"github.com/rushteam/prodrec/rerank"
)

const scenarioCatalog = `product_id,title,category,popularity_score,tags
P1,One,A,10,x
P2,Two,A,5,y
P3,Three,B,8,x
`

const wideCatalog = `product_id,title,category,popularity_score,tags
S1,Runner,shoes,90,"running, sale"
S2,Boot,shoes,70,"winter"
S3,Sandal,shoes,70,"summer, sale"
S4,Loafer,shoes,40,"office"
B1,Tote,bags,85,"eco, sale"
B2,Pack,bags,60,"running"
B3,Clutch,bags,30,"party"
J1,Parka,outerwear,95,"winter"
J2,Shell,outerwear,50,"running, rain"
H1,Cap,hats,20,"summer"
`

func mustCatalog(t *testing.T, src string) *catalog.Store {
	t.Helper()
	s, err := catalog.Load(strings.NewReader(src), nil)
	if err != nil {
		t.Fatalf("catalog.Load() error = %v", err)
	}
	return s
}

func ids(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func assertList(t *testing.T, name string, items []*core.Item, topN, catalogLen int) {
	t.Helper()
	if len(items) > topN || len(items) > catalogLen {
		t.Errorf("%s: len = %d, topN = %d, catalog = %d", name, len(items), topN, catalogLen)
	}
	seen := make(map[string]bool)
	for _, it := range items {
		if seen[it.ID] {
			t.Errorf("%s: duplicate id %s in %v", name, it.ID, ids(items))
		}
		seen[it.ID] = true
	}
}

func TestColdStart_Scenario(t *testing.T) {
	c := mustCatalog(t, scenarioCatalog)
	items, err := ColdStart(context.Background(), c, 2)
	if err != nil {
		t.Fatalf("ColdStart() error = %v", err)
	}
	if got := ids(items); !reflect.DeepEqual(got, []string{"P1", "P3"}) {
		t.Errorf("ColdStart() = %v, want [P1 P3]", got)
	}
}

func TestColdStart_DiversityBeforeTrending(t *testing.T) {
	c := mustCatalog(t, wideCatalog)
	items, err := ColdStart(context.Background(), c, 5)
	if err != nil {
		t.Fatalf("ColdStart() error = %v", err)
	}
	// H1 是 hats 的代表，排在热门商品 S2 之前
	if got, want := ids(items), []string{"J1", "S1", "B1", "H1", "S2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ColdStart() = %v, want %v", got, want)
	}
	for _, it := range items {
		if it.Score != it.Product.PopularityScore {
			t.Errorf("%s score = %v, want popularity %v", it.ID, it.Score, it.Product.PopularityScore)
		}
	}
}

func TestColdStart_Deterministic(t *testing.T) {
	c := mustCatalog(t, wideCatalog)
	first, _ := ColdStart(context.Background(), c, 5)
	for i := 0; i < 10; i++ {
		again, _ := ColdStart(context.Background(), c, 5)
		if !reflect.DeepEqual(ids(first), ids(again)) {
			t.Fatalf("run %d = %v, want %v", i, ids(again), ids(first))
		}
	}
}

func TestSelectors_DedupAndBound(t *testing.T) {
	c := mustCatalog(t, wideCatalog)
	profiles := map[string]*core.UserProfile{
		"empty":    core.NewUserProfile("U"),
		"shoes":    profile.Build(c, "U", []string{"S2", "B3", "S4"}).Profile,
		"all":      profile.Build(c, "U", []string{"J2", "J1", "S1", "B1", "H1"}).Profile,
		"hats":     profile.Build(c, "U", []string{"H1"}).Profile,
		"repeated": profile.Build(c, "U", []string{"B2", "B2", "B2", "J2"}).Profile,
	}

	ctx := context.Background()
	for topN := 0; topN <= 12; topN++ {
		cold, err := ColdStart(ctx, c, topN)
		if err != nil {
			t.Fatalf("ColdStart(%d) error = %v", topN, err)
		}
		assertList(t, "cold start", cold, topN, c.Len())

		for name, p := range profiles {
			items, err := Personalized(ctx, c, p, topN)
			if err != nil {
				t.Fatalf("Personalized(%s, %d) error = %v", name, topN, err)
			}
			assertList(t, "personalized "+name, items, topN, c.Len())
			if topN > 0 && len(items) != min(topN, c.Len()) {
				t.Errorf("personalized %s topN=%d: len = %d, want backfilled to %d", name, topN, len(items), min(topN, c.Len()))
			}
		}
	}
}

func TestSelectors_EmptyCatalog(t *testing.T) {
	c := mustCatalog(t, "product_id,title,category,popularity_score,tags\n")
	cold, err := ColdStart(context.Background(), c, 5)
	if err != nil || len(cold) != 0 {
		t.Errorf("ColdStart() = %v, %v; want empty", ids(cold), err)
	}
	recs, err := Personalized(context.Background(), c, core.NewUserProfile("U"), 6)
	if err != nil || len(recs) != 0 {
		t.Errorf("Personalized() = %v, %v; want empty", ids(recs), err)
	}
}

func TestPersonalized_Scenario(t *testing.T) {
	c := mustCatalog(t, scenarioCatalog)
	p := core.NewUserProfile("U1")
	p.CategoryCounts.Add("A", 1)
	p.TagCounts.Add("x", 1)

	items, err := Personalized(context.Background(), c, p, 1)
	if err != nil {
		t.Fatalf("Personalized() error = %v", err)
	}
	if got := ids(items); !reflect.DeepEqual(got, []string{"P1"}) {
		t.Fatalf("Personalized() = %v, want [P1]", got)
	}
	if items[0].Score != 15 {
		t.Errorf("score = %v, want 15", items[0].Score)
	}
}

func TestPersonalized_ShareAndLeftover(t *testing.T) {
	c := mustCatalog(t, wideCatalog)
	p := profile.Build(c, "U4", []string{"S2", "B3", "S4"}).Profile

	items, _ := Personalized(context.Background(), c, p, 5)
	if got, want := ids(items), []string{"S1", "S2", "S3", "B1", "B2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("topN=5 = %v, want %v", got, want)
	}

	items, _ = Personalized(context.Background(), c, p, 6)
	if got, want := ids(items), []string{"S1", "S2", "S3", "B1", "B2", "B3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("topN=6 = %v, want %v", got, want)
	}
	wantScores := []float64{90, 75, 70, 85, 60, 35}
	for i, it := range items {
		if it.Score != wantScores[i] {
			t.Errorf("%s score = %v, want %v", it.ID, it.Score, wantScores[i])
		}
	}
}

func TestPersonalized_BackfillIsScored(t *testing.T) {
	c := mustCatalog(t, wideCatalog)
	p := profile.Build(c, "U5", []string{"H1"}).Profile
	before := testutil.ToFloat64(metrics.BackfillItems)

	items, err := Personalized(context.Background(), c, p, 6)
	if err != nil {
		t.Fatalf("Personalized() error = %v", err)
	}
	if got, want := ids(items), []string{"H1", "J1", "S1", "B1", "S2", "S3"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Personalized() = %v, want %v", got, want)
	}
	// S3 来自热门补齐，带 summer 标签，同样加分
	if items[5].Score != 75 {
		t.Errorf("S3 score = %v, want 75", items[5].Score)
	}
	if got := testutil.ToFloat64(metrics.BackfillItems) - before; got != 5 {
		t.Errorf("backfill metric delta = %v, want 5", got)
	}
}

func TestPersonalized_NoSignalFallsBackToScoredCatalog(t *testing.T) {
	c := mustCatalog(t, wideCatalog)
	items, _ := Personalized(context.Background(), c, nil, 6)
	if got, want := ids(items), []string{"J1", "S1", "B1", "S2", "S3", "B2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Personalized(nil) = %v, want %v", got, want)
	}
}

func TestScoring_MonotonicAndBoost(t *testing.T) {
	c := mustCatalog(t, `product_id,title,category,popularity_score,tags
A,a,C,10,x
B,b,C,11,x
D,d,C,10,z
`)
	p := core.NewUserProfile("U")
	p.CategoryCounts.Add("C", 1)
	p.TagCounts.Add("x", 1)

	items, _ := Personalized(context.Background(), c, p, 3)
	scores := map[string]float64{}
	for _, it := range items {
		scores[it.ID] = it.Score
	}
	if scores["B"] < scores["A"] {
		t.Errorf("higher popularity scored lower: %v", scores)
	}
	if scores["A"]-scores["D"] != 5 {
		t.Errorf("tag boost = %v, want 5", scores["A"]-scores["D"])
	}
}

type testConfig struct {
	core.DefaultRecommendConfig
	boost float64
}

func (c *testConfig) DefaultTagBoost() float64 { return c.boost }

func TestEngine_CustomBoost(t *testing.T) {
	c := mustCatalog(t, scenarioCatalog)
	p := core.NewUserProfile("U1")
	p.CategoryCounts.Add("A", 1)
	p.TagCounts.Add("y", 1)

	e := NewEngine(c, &testConfig{boost: 10})
	items, _ := e.Personalized(context.Background(), "U1", p, 1)
	if got := ids(items); !reflect.DeepEqual(got, []string{"P2"}) || items[0].Score != 15 {
		t.Errorf("Personalized() = %v, want [P2] with score 15", got)
	}
}

func TestEngine_Filters(t *testing.T) {
	c := mustCatalog(t, wideCatalog)
	f, err := filter.NewExprFilter(`item.category != "outerwear"`)
	if err != nil {
		t.Fatalf("NewExprFilter() error = %v", err)
	}
	e := NewEngine(c, nil)
	e.Filters = []filter.Filter{f}

	items, _ := e.ColdStart(context.Background(), "U", 5)
	if got, want := ids(items), []string{"S1", "B1", "H1", "S2", "S3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ColdStart() = %v, want %v", got, want)
	}
}

func TestEngine_ConfiguredPipeline(t *testing.T) {
	c := mustCatalog(t, wideCatalog)
	e := NewEngine(c, nil)
	e.ColdStartPipeline = &pipeline.Pipeline{
		Name: "custom",
		Nodes: []pipeline.Node{
			&recall.Trending{},
			&rerank.Diversity{},
		},
	}

	items, err := e.ColdStart(context.Background(), "U", 4)
	if err != nil {
		t.Fatalf("ColdStart() error = %v", err)
	}
	// Trending 读取 top_n 参数取 4 个，多样性重排去掉同类目的 S2
	if got, want := ids(items), []string{"J1", "S1", "B1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ColdStart() = %v, want %v", got, want)
	}
}

func TestEngine_ConfiguredPipelineKeepsFilters(t *testing.T) {
	c := mustCatalog(t, wideCatalog)
	f, err := filter.NewExprFilter(`item.category != "outerwear"`)
	if err != nil {
		t.Fatalf("NewExprFilter() error = %v", err)
	}
	configured := &pipeline.Pipeline{
		Name:  "custom",
		Nodes: []pipeline.Node{&recall.Trending{}},
	}
	e := NewEngine(c, nil)
	e.Filters = []filter.Filter{f}
	e.ColdStartPipeline = configured
	e.PersonalizedPipeline = configured

	items, err := e.ColdStart(context.Background(), "U", 4)
	if err != nil {
		t.Fatalf("ColdStart() error = %v", err)
	}
	// Trending 取 J1 S1 B1 S2，过滤掉 outerwear 的 J1
	if got, want := ids(items), []string{"S1", "B1", "S2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ColdStart() = %v, want %v", got, want)
	}

	items, err = e.Personalized(context.Background(), "U", core.NewUserProfile("U"), 2)
	if err != nil {
		t.Fatalf("Personalized() error = %v", err)
	}
	if got, want := ids(items), []string{"S1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Personalized() = %v, want %v", got, want)
	}
	if len(configured.Nodes) != 1 {
		t.Errorf("configured pipeline mutated: %d nodes", len(configured.Nodes))
	}
}

func TestEngine_NonPositiveTopN(t *testing.T) {
	c := mustCatalog(t, wideCatalog)
	before := testutil.ToFloat64(metrics.RecommendationsServed.WithLabelValues(SceneColdStart))
	for _, n := range []int{0, -3} {
		items, err := ColdStart(context.Background(), c, n)
		if err != nil || items == nil || len(items) != 0 {
			t.Errorf("ColdStart(%d) = %v, %v; want empty list", n, items, err)
		}
	}
	if got := testutil.ToFloat64(metrics.RecommendationsServed.WithLabelValues(SceneColdStart)) - before; got != 2 {
		t.Errorf("served metric delta = %v, want 2", got)
	}
}
