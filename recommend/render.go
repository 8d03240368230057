package recommend

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pkg/utils"
)

// Entry 是推荐列表中一行的展示形式。
type Entry struct {
	ProductID  string   `json:"product_id"`
	Title      string   `json:"title"`
	Category   string   `json:"category"`
	Popularity float64  `json:"popularity_score"`
	Score      float64  `json:"score"`
	Tags       []string `json:"tags"`
	Source     string   `json:"recall_source,omitempty"`
}

// Entries 把推荐列表转换为展示行。
func Entries(items []*core.Item) []Entry {
	out := make([]Entry, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		e := Entry{ProductID: it.ID, Score: it.Score, Tags: []string{}}
		if p := it.Product; p != nil {
			e.Title = p.Title
			e.Category = p.Category
			e.Popularity = p.PopularityScore
			e.Tags = p.Tags()
		}
		if lbl, ok := it.Labels[utils.LabelRecallSource]; ok {
			e.Source = lbl.Value
		}
		out = append(out, e)
	}
	return out
}

// RenderList 以对齐表格输出推荐列表。
func RenderList(w io.Writer, entries []Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tproduct_id\ttitle\tcategory\tpopularity\tscore\ttags")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i, e.ProductID, e.Title, e.Category,
			formatScore(e.Popularity), formatScore(e.Score), strings.Join(e.Tags, ","))
	}
	return tw.Flush()
}

// RenderProfile 输出画像的类目与标签计数（插入顺序）。
func RenderProfile(w io.Writer, p *core.UserProfile) error {
	if p == nil {
		p = core.NewUserProfile("")
	}
	if _, err := fmt.Fprintf(w, "Preferred Categories: %s\n", formatCounts(p.CategoryCounts.Items())); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Tag Frequencies: %s\n", formatCounts(p.TagCounts.Items()))
	return err
}

// RenderCategoryBars 以文本条形图输出画像中各类目的点击数，按首次出现顺序。
//
//	U4 - Preferred Categories
//	shoes | ## 2
//	bags  | #  1
func RenderCategoryBars(w io.Writer, p *core.UserProfile) error {
	var userID string
	if p != nil {
		userID = p.UserID
	}
	var counts []core.Count
	if p != nil {
		counts = p.CategoryCounts.Items()
	}

	if _, err := fmt.Fprintf(w, "%s - Preferred Categories\n", userID); err != nil {
		return err
	}
	if len(counts) == 0 {
		_, err := fmt.Fprintln(w, "(no clicks)")
		return err
	}

	maxCount, width := 0, 0
	for _, c := range counts {
		maxCount = max(maxCount, c.Count)
		width = max(width, len(c.Key))
	}
	for _, c := range counts {
		bar := strings.Repeat("#", c.Count) + strings.Repeat(" ", maxCount-c.Count)
		if _, err := fmt.Fprintf(w, "%-*s | %s %d\n", width, c.Key, bar, c.Count); err != nil {
			return err
		}
	}
	return nil
}

// RenderInteractions 输出交互日志的前 n 条（n <= 0 输出全部）。
func RenderInteractions(w io.Writer, log []core.Interaction, n int) error {
	if n > 0 && len(log) > n {
		log = log[:n]
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tuser_id\tproduct_id\tinteraction")
	for i, rec := range log {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i, rec.UserID, rec.ProductID, rec.Interaction)
	}
	return tw.Flush()
}

func formatCounts(counts []core.Count) string {
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		parts = append(parts, fmt.Sprintf("%s: %d", c.Key, c.Count))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
