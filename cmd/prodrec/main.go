// Command prodrec 模拟用户会话：冷启动推荐 → 读取选择 → 画像 → 个性化推荐 → 记录交互。
//
//	prodrec -config prodrec.yaml -head 10 < selections.txt
//
// 每个会话从标准输入读取一行逗号分隔的商品 ID。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rushteam/prodrec/catalog"
	"github.com/rushteam/prodrec/config"
	"github.com/rushteam/prodrec/config/builders"
	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/filter"
	"github.com/rushteam/prodrec/logging"
	"github.com/rushteam/prodrec/metrics"
	"github.com/rushteam/prodrec/recommend"
	"github.com/rushteam/prodrec/recorder"
	"github.com/rushteam/prodrec/store"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

type options struct {
	configPath  string
	format      string
	head        int
	showMetrics bool
	writeLog    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		logging.Error().Err(err).Msg("prodrec failed")
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("prodrec", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "config file (default: $PRODREC_CONFIG or ./prodrec.yaml)")
	fs.StringVar(&opts.format, "format", formatTable, "output format: table or json")
	fs.IntVar(&opts.head, "head", 10, "interaction records to print after all sessions (0 = all, -1 = none)")
	fs.BoolVar(&opts.showMetrics, "metrics", false, "print a metrics summary at the end")
	fs.StringVar(&opts.writeLog, "write-interactions", "", "write the interaction log as CSV to this path")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.format != formatTable && opts.format != formatJSON {
		return nil, fmt.Errorf("unknown format %q", opts.format)
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	settings, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	logging.Init(settings.LoggingConfig())

	cat, err := catalog.LoadFiles(settings.Catalog.ProductsPath, settings.Catalog.InteractionsPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logging.Info().Int("products", cat.Len()).Int("categories", len(cat.Categories())).Int("interactions", len(cat.Interactions())).Msg("catalog loaded")

	st, err := store.Open(settings.StoreConfig())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if st != nil {
		defer st.Close()
		builders.UseStore(st)
		logging.Info().Str("backend", st.Name()).Msg("interaction mirror enabled")
	}

	engine, err := newEngine(cat, settings)
	if err != nil {
		return err
	}

	var prompt io.Writer
	if opts.format == formatTable {
		prompt = stdout
	}
	selectFn := recommend.LineSelector(stdin, prompt)
	if opts.format == formatTable {
		selectFn = printColdStart(stdout, selectFn)
	}

	session := &recommend.Session{
		Engine:   engine,
		Recorder: recorder.New(cat, st, settings.Store.KeyPrefix),
		Select:   selectFn,
	}

	err = session.RunAll(ctx, settings.Sessions, func(r *recommend.SessionReport) error {
		if opts.format == formatJSON {
			return printJSON(stdout, r)
		}
		return printReport(stdout, r)
	})
	if err != nil {
		return err
	}

	if opts.head >= 0 && opts.format == formatTable {
		fmt.Fprintln(stdout, "\n--- Updated Overall User Interactions ---")
		if err := recommend.RenderInteractions(stdout, cat.Interactions(), opts.head); err != nil {
			return err
		}
	}

	if opts.writeLog != "" {
		if err := writeInteractions(cat, opts.writeLog); err != nil {
			return err
		}
	}

	if opts.showMetrics {
		return printMetrics(stdout, prometheus.DefaultGatherer)
	}
	return nil
}

func newEngine(cat *catalog.Store, settings *config.Settings) (*recommend.Engine, error) {
	engine := recommend.NewEngine(cat, settings)

	if expr := settings.Recommend.FilterExpr; expr != "" {
		f, err := filter.NewExprFilter(expr)
		if err != nil {
			return nil, err
		}
		engine.Filters = append(engine.Filters, f)
	}

	if path := settings.Recommend.ColdStartPipeline; path != "" {
		p, err := config.LoadPipeline(path)
		if err != nil {
			return nil, err
		}
		engine.ColdStartPipeline = p
	}
	if path := settings.Recommend.PersonalizedPipeline; path != "" {
		p, err := config.LoadPipeline(path)
		if err != nil {
			return nil, err
		}
		engine.PersonalizedPipeline = p
	}
	return engine, nil
}

func printColdStart(w io.Writer, next recommend.SelectFunc) recommend.SelectFunc {
	return func(ctx context.Context, userID string, cold []*core.Item) ([]string, error) {
		fmt.Fprintf(w, "\n\n=== Simulating session for %s ===\n", userID)
		fmt.Fprintln(w, "\n--- Initial Recommendations ---")
		if err := recommend.RenderList(w, recommend.Entries(cold)); err != nil {
			return nil, err
		}
		return next(ctx, userID, cold)
	}
}

func printReport(w io.Writer, r *recommend.SessionReport) error {
	fmt.Fprintf(w, "%s selected: [%s]\n", r.UserID, strings.Join(r.Selected, ", "))
	for _, id := range r.Unknown {
		fmt.Fprintf(w, "Warning: Product ID %s not found.\n", id)
	}
	fmt.Fprintf(w, "\n--- %s Updated Profile ---\n", r.UserID)
	if err := recommend.RenderProfile(w, r.Profile); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := recommend.RenderCategoryBars(w, r.Profile); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n--- Personalized Recommendations for %s ---\n", r.UserID)
	return recommend.RenderList(w, r.Personalized)
}

func printJSON(w io.Writer, r *recommend.SessionReport) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeInteractions(cat *catalog.Store, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := cat.WriteInteractions(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write interactions: %w", err)
	}
	return f.Close()
}

func printMetrics(w io.Writer, g prometheus.Gatherer) error {
	samples, err := metrics.Snapshot(g, "prodrec_")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\n--- Metrics ---")
	for _, s := range samples {
		labels := make([]string, 0, len(s.Labels))
		for k, v := range s.Labels {
			labels = append(labels, k+"="+v)
		}
		sort.Strings(labels)
		fmt.Fprintf(w, "%s{%s} %v\n", s.Name, strings.Join(labels, ","), s.Value)
	}
	return nil
}
