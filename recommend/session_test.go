package recommend

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/recorder"
	"github.com/rushteam/prodrec/store"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"P1,P4", []string{"P1", "P4"}},
		{" P1 , ,P4 ,", []string{"P1", "P4"}},
		{"P1,P1", []string{"P1", "P1"}},
		{" , ", []string{}},
	}
	for _, tt := range tests {
		if got := ParseSelection(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseSelection(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLineSelector(t *testing.T) {
	var prompt bytes.Buffer
	sel := LineSelector(strings.NewReader("S2, ,B3\n"), &prompt)

	got, err := sel(context.Background(), "U4", nil)
	if err != nil || !reflect.DeepEqual(got, []string{"S2", "B3"}) {
		t.Errorf("first line = %v, %v", got, err)
	}
	if !strings.Contains(prompt.String(), "U4, enter product IDs") {
		t.Errorf("prompt = %q", prompt.String())
	}

	got, err = sel(context.Background(), "U5", nil)
	if err != nil || len(got) != 0 {
		t.Errorf("after EOF = %v, %v; want empty selection", got, err)
	}
}

func TestSession_Run(t *testing.T) {
	ctx := context.Background()
	c := mustCatalog(t, wideCatalog)
	mirror := store.NewMemoryStore()

	s := &Session{
		Engine:   NewEngine(c, nil),
		Recorder: recorder.New(c, mirror, ""),
		Select: StaticSelector(map[string][]string{
			"U4": {"S2", "ZZ", "B3", "S4"},
		}),
	}

	var reports []*SessionReport
	err := s.RunAll(ctx, []string{"U4", "U5"}, func(r *SessionReport) error {
		reports = append(reports, r)
		return nil
	})
	if err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("reports = %d, want 2", len(reports))
	}

	u4 := reports[0]
	if u4.SessionID == "" || u4.SessionID == reports[1].SessionID {
		t.Errorf("session ids = %q, %q", u4.SessionID, reports[1].SessionID)
	}
	if len(u4.ColdStart) != 5 {
		t.Errorf("cold start len = %d, want 5", len(u4.ColdStart))
	}
	if !reflect.DeepEqual(u4.Unknown, []string{"ZZ"}) || len(u4.Warnings) != 1 {
		t.Errorf("unknown = %v, warnings = %v", u4.Unknown, u4.Warnings)
	}
	if want := []core.Count{{Key: "shoes", Count: 2}, {Key: "bags", Count: 1}}; !reflect.DeepEqual(u4.Categories, want) {
		t.Errorf("categories = %v, want %v", u4.Categories, want)
	}
	var got []string
	for _, e := range u4.Personalized {
		got = append(got, e.ProductID)
	}
	if want := []string{"S1", "S2", "S3", "B1", "B2", "B3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("personalized = %v, want %v", got, want)
	}

	u5 := reports[1]
	if len(u5.Selected) != 0 || len(u5.Categories) != 0 || len(u5.Personalized) != 6 {
		t.Errorf("U5 report = %+v", u5)
	}

	log := c.Interactions()
	if len(log) != 4 || log[1] != core.NewClick("U4", "ZZ") {
		t.Errorf("interaction log = %v", log)
	}
	if n, _ := mirror.LLen(ctx, recorder.DefaultKeyPrefix+":U4"); n != 4 {
		t.Errorf("mirror len = %d, want 4", n)
	}
}

func TestSession_Canceled(t *testing.T) {
	c := mustCatalog(t, wideCatalog)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &Session{Engine: NewEngine(c, nil)}
	if err := s.RunAll(ctx, []string{"U4"}, nil); err == nil {
		t.Error("RunAll() on canceled context expected error")
	}
}

func TestRenderCategoryBars(t *testing.T) {
	p := core.NewUserProfile("U4")
	p.CategoryCounts.Add("shoes", 2)
	p.CategoryCounts.Add("bags", 1)

	var buf bytes.Buffer
	if err := RenderCategoryBars(&buf, p); err != nil {
		t.Fatalf("RenderCategoryBars() error = %v", err)
	}
	want := "U4 - Preferred Categories\n" +
		"shoes | ## 2\n" +
		"bags  | #  1\n"
	if buf.String() != want {
		t.Errorf("RenderCategoryBars() =\n%s\nwant\n%s", buf.String(), want)
	}

	buf.Reset()
	_ = RenderCategoryBars(&buf, core.NewUserProfile("U5"))
	if buf.String() != "U5 - Preferred Categories\n(no clicks)\n" {
		t.Errorf("empty profile = %q", buf.String())
	}
}

func TestRenderProfileAndList(t *testing.T) {
	c := mustCatalog(t, scenarioCatalog)
	p := core.NewUserProfile("U1")
	prod, _ := c.FindByID("P1")
	p.AddClick(prod)

	var buf bytes.Buffer
	_ = RenderProfile(&buf, p)
	if want := "Preferred Categories: {A: 1}\nTag Frequencies: {x: 1}\n"; buf.String() != want {
		t.Errorf("RenderProfile() = %q, want %q", buf.String(), want)
	}

	items, _ := ColdStart(context.Background(), c, 2)
	buf.Reset()
	if err := RenderList(&buf, Entries(items)); err != nil {
		t.Fatalf("RenderList() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.Contains(lines[1], "P1") || !strings.Contains(lines[2], "P3") {
		t.Errorf("RenderList() =\n%s", buf.String())
	}

	buf.Reset()
	_ = RenderInteractions(&buf, []core.Interaction{core.NewClick("U1", "P1"), core.NewClick("U1", "P3")}, 1)
	if lines := strings.Split(strings.TrimSpace(buf.String()), "\n"); len(lines) != 2 {
		t.Errorf("RenderInteractions() head 1 =\n%s", buf.String())
	}
}
