package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rushteam/prodrec/core"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// chdir switches the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restore wd %s: %v", wd, err)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	s, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(s, DefaultSettings()) {
		t.Errorf("Load() = %+v, want defaults %+v", s, DefaultSettings())
	}
	var rc core.RecommendConfig = s
	if rc.DefaultColdStartTopN() != 5 || rc.DefaultPersonalizedTopN() != 6 || rc.DefaultTagBoost() != 5 || rc.DefaultPreferTags() != 3 {
		t.Errorf("recommend defaults = %+v", s.Recommend)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, "prodrec.yaml", `
catalog:
  products_path: data/products.csv
recommend:
  personalized_top_n: 8
  filter_expr: 'item.category != "hats"'
store:
  backend: memory
sessions: [A1, A2, A3]
`)
	t.Setenv("PRODREC_RECOMMEND_TAG_BOOST", "7.5")
	t.Setenv("PRODREC_LOG_LEVEL", "debug")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Catalog.ProductsPath != "data/products.csv" || s.Catalog.InteractionsPath != "users.csv" {
		t.Errorf("catalog = %+v", s.Catalog)
	}
	if s.Recommend.PersonalizedTopN != 8 || s.Recommend.ColdStartTopN != 5 {
		t.Errorf("recommend = %+v", s.Recommend)
	}
	if s.Recommend.TagBoost != 7.5 {
		t.Errorf("tag_boost = %v, want env override 7.5", s.Recommend.TagBoost)
	}
	if s.Recommend.FilterExpr != `item.category != "hats"` {
		t.Errorf("filter_expr = %q", s.Recommend.FilterExpr)
	}
	if s.Log.Level != "debug" || s.LoggingConfig().Level != "debug" {
		t.Errorf("log = %+v", s.Log)
	}
	if got := s.StoreConfig(); got.Backend != "memory" {
		t.Errorf("store = %+v", got)
	}
	if !reflect.DeepEqual(s.Sessions, []string{"A1", "A2", "A3"}) {
		t.Errorf("sessions = %v", s.Sessions)
	}
}

func TestLoad_EnvSessions(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PRODREC_SESSIONS", " U7, ,U8 ")
	t.Setenv("PRODREC_STORE_BACKEND", "redis")
	t.Setenv("PRODREC_STORE_REDIS_ADDR", "10.0.0.1:6379")

	s, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(s.Sessions, []string{"U7", "U8"}) {
		t.Errorf("sessions = %v", s.Sessions)
	}
	if s.Store.Backend != "redis" || s.Store.RedisAddr != "10.0.0.1:6379" {
		t.Errorf("store = %+v", s.Store)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		field  string
	}{
		{"zero top n", func(s *Settings) { s.Recommend.ColdStartTopN = 0 }, "ColdStartTopN"},
		{"negative boost", func(s *Settings) { s.Recommend.TagBoost = -1 }, "TagBoost"},
		{"zero boost", func(s *Settings) { s.Recommend.TagBoost = 0 }, "TagBoost"},
		{"zero preferred tags", func(s *Settings) { s.Recommend.PreferredTags = 0 }, "PreferredTags"},
		{"bad backend", func(s *Settings) { s.Store.Backend = "etcd" }, "Backend"},
		{"redis without addr", func(s *Settings) { s.Store.Backend = "redis"; s.Store.RedisAddr = "" }, "RedisAddr"},
		{"bad log format", func(s *Settings) { s.Log.Format = "xml" }, "Format"},
		{"empty products path", func(s *Settings) { s.Catalog.ProductsPath = "" }, "ProductsPath"},
		{"empty session id", func(s *Settings) { s.Sessions = []string{"U4", ""} }, "Sessions[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			err := s.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("Validate() = %v, want mention of %s", err, tt.field)
			}
			if de := core.GetDomainError(err); de == nil || de.Code != core.ErrorCodeInvalidInput {
				t.Errorf("Validate() error is not an invalid input DomainError: %v", err)
			}
		})
	}

	if err := DefaultSettings().Validate(); err != nil {
		t.Errorf("defaults Validate() = %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"PRODREC_CATALOG_PRODUCTS_PATH":      "catalog.products_path",
		"PRODREC_RECOMMEND_COLD_START_TOP_N": "recommend.cold_start_top_n",
		"PRODREC_STORE_KEY_PREFIX":           "store.key_prefix",
		"PRODREC_SESSIONS":                   "sessions",
		"PRODREC_UNKNOWN_THING":              "",
		"PRODREC_LOG_":                       "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
