package recommend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/logging"
	"github.com/rushteam/prodrec/profile"
	"github.com/rushteam/prodrec/recorder"
)

// SelectFunc 返回用户在冷启动列表中选中的商品 ID。
type SelectFunc func(ctx context.Context, userID string, coldStart []*core.Item) ([]string, error)

// SessionReport 是一次会话的完整结果，供命令行打印或 JSON 输出。
type SessionReport struct {
	SessionID    string                        `json:"session_id"`
	UserID       string                        `json:"user_id"`
	ColdStart    []Entry                       `json:"cold_start"`
	Selected     []string                      `json:"selected"`
	Warnings     []*core.UnknownProductWarning `json:"-"`
	Unknown      []string                      `json:"unknown,omitempty"`
	Profile      *core.UserProfile             `json:"-"`
	Categories   []core.Count                  `json:"categories"`
	Tags         []core.Count                  `json:"tags"`
	Personalized []Entry                       `json:"personalized"`
}

// Session 依次执行：冷启动 → 用户选择 → 构建画像 → 个性化 → 记录交互。
type Session struct {
	Engine   *Engine
	Recorder *recorder.Recorder
	Select   SelectFunc
}

// Run 为一个用户执行一次会话。
func (s *Session) Run(ctx context.Context, userID string) (*SessionReport, error) {
	cfg := s.Engine.Config
	report := &SessionReport{SessionID: uuid.NewString(), UserID: userID}
	log := logging.With().Str("session_id", report.SessionID).Str("user_id", userID).Logger()

	cold, err := s.Engine.ColdStart(ctx, userID, cfg.DefaultColdStartTopN())
	if err != nil {
		return nil, fmt.Errorf("cold start for %s: %w", userID, err)
	}
	report.ColdStart = Entries(cold)

	var selected []string
	if s.Select != nil {
		selected, err = s.Select(ctx, userID, cold)
		if err != nil {
			return nil, fmt.Errorf("read selection for %s: %w", userID, err)
		}
	}
	report.Selected = selected
	log.Info().Strs("selected", selected).Msg("selection received")

	res := profile.Build(s.Engine.Catalog, userID, selected)
	report.Profile = res.Profile
	report.Warnings = res.Warnings
	for _, w := range res.Warnings {
		report.Unknown = append(report.Unknown, w.ProductID)
	}
	report.Categories = res.Profile.CategoryCounts.Items()
	report.Tags = res.Profile.TagCounts.Items()

	recs, err := s.Engine.Personalized(ctx, userID, res.Profile, cfg.DefaultPersonalizedTopN())
	if err != nil {
		return nil, fmt.Errorf("personalized for %s: %w", userID, err)
	}
	report.Personalized = Entries(recs)

	if s.Recorder != nil {
		if err := s.Recorder.Record(ctx, userID, selected); err != nil {
			return report, fmt.Errorf("record interactions for %s: %w", userID, err)
		}
	}
	log.Info().Int("cold_start", len(cold)).Int("personalized", len(recs)).Int("warnings", len(res.Warnings)).Msg("session finished")
	return report, nil
}

// RunAll 按顺序为每个用户执行一次会话，遇到错误即停止。
func (s *Session) RunAll(ctx context.Context, userIDs []string, each func(*SessionReport) error) error {
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		report, err := s.Run(ctx, userID)
		if err != nil {
			return err
		}
		if each != nil {
			if err := each(report); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParseSelection 解析逗号分隔的商品 ID：去掉首尾空白，丢弃空项，保留顺序与重复。
func ParseSelection(line string) []string {
	out := make([]string, 0)
	for _, tok := range strings.Split(line, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// LineSelector 在 w 上提示并从 r 逐行读取选择；输入结束时视为空选择。
func LineSelector(r io.Reader, w io.Writer) SelectFunc {
	sc := bufio.NewScanner(r)
	return func(_ context.Context, userID string, _ []*core.Item) ([]string, error) {
		if w != nil {
			fmt.Fprintf(w, "\n%s, enter product IDs you like (comma separated, e.g., P1,P4): ", userID)
		}
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, err
			}
			return []string{}, nil
		}
		return ParseSelection(sc.Text()), nil
	}
}

// StaticSelector 为每个用户返回预设的选择，未配置的用户为空选择。
func StaticSelector(selections map[string][]string) SelectFunc {
	return func(_ context.Context, userID string, _ []*core.Item) ([]string, error) {
		return append([]string{}, selections[userID]...), nil
	}
}
