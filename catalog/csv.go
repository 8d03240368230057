package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rushteam/prodrec/core"
)

// 数据源名称，用于 DataLoadError
const (
	SourceCatalog      = "catalog"
	SourceInteractions = "interactions"
)

// 目录与交互表的列名
const (
	ColProductID   = "product_id"
	ColTitle       = "title"
	ColCategory    = "category"
	ColPopularity  = "popularity_score"
	ColTags        = "tags"
	ColUserID      = "user_id"
	ColInteraction = "interaction"
)

var (
	catalogColumns     = []string{ColProductID, ColTitle, ColCategory, ColPopularity, ColTags}
	interactionColumns = []string{ColUserID, ColProductID, ColInteraction}
)

var (
	errEmptyID       = errors.New("empty id")
	errEmptyCategory = errors.New("empty category")
	errDuplicateID   = errors.New("duplicate product id")
	errNotFinite     = errors.New("popularity score is not finite")
)

// table 是按表头寻址的 CSV 读取器。
type table struct {
	source string
	r      *csv.Reader
	index  map[string]int
	line   int
}

func newTable(source string, src io.Reader, required []string) (*table, error) {
	r := csv.NewReader(src)
	r.TrimLeadingSpace = true
	// 列数由表头决定，这里不强制每行一致，缺列的行在取值时报错
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, &core.DataLoadError{Source: source, Err: errors.New("missing header")}
	}
	if err != nil {
		return nil, &core.DataLoadError{Source: source, Line: 1, Err: err}
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		// 兼容带 BOM 的文件
		h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, &core.DataLoadError{Source: source, Line: 1, Column: col, Err: errors.New("missing required column")}
		}
	}
	return &table{source: source, r: r, index: index, line: 1}, nil
}

// next 读取下一行；读完返回 io.EOF。
func (t *table) next() ([]string, error) {
	rec, err := t.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			t.line = perr.Line
		}
		return nil, t.fail("", err)
	}
	t.line, _ = t.r.FieldPos(0)
	return rec, nil
}

func (t *table) field(rec []string, col string) (string, error) {
	i := t.index[col]
	if i >= len(rec) {
		return "", t.fail(col, fmt.Errorf("row has %d fields, column at position %d", len(rec), i+1))
	}
	return rec[i], nil
}

func (t *table) fail(col string, err error) error {
	return &core.DataLoadError{Source: t.source, Line: t.line, Column: col, Err: err}
}

// readProducts 解析商品目录。任何一行出错都返回 DataLoadError，不返回部分结果。
func readProducts(src io.Reader) ([]*core.Product, error) {
	t, err := newTable(SourceCatalog, src, catalogColumns)
	if err != nil {
		return nil, err
	}

	var products []*core.Product
	seen := make(map[string]bool)
	for {
		rec, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlank(rec) {
			continue
		}

		vals := make(map[string]string, len(catalogColumns))
		for _, col := range catalogColumns {
			v, err := t.field(rec, col)
			if err != nil {
				return nil, err
			}
			vals[col] = v
		}

		id := strings.TrimSpace(vals[ColProductID])
		if id == "" {
			return nil, t.fail(ColProductID, errEmptyID)
		}
		if seen[id] {
			return nil, t.fail(ColProductID, fmt.Errorf("%w: %s", errDuplicateID, id))
		}
		category := strings.TrimSpace(vals[ColCategory])
		if category == "" {
			return nil, t.fail(ColCategory, errEmptyCategory)
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(vals[ColPopularity]), 64)
		if err != nil {
			return nil, t.fail(ColPopularity, err)
		}
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return nil, t.fail(ColPopularity, errNotFinite)
		}

		seen[id] = true
		products = append(products, &core.Product{
			ID:              id,
			Title:           strings.TrimSpace(vals[ColTitle]),
			Category:        category,
			PopularityScore: score,
			RawTags:         vals[ColTags],
		})
	}
	return products, nil
}

// readInteractions 解析交互日志。
func readInteractions(src io.Reader) ([]core.Interaction, error) {
	t, err := newTable(SourceInteractions, src, interactionColumns)
	if err != nil {
		return nil, err
	}

	var out []core.Interaction
	for {
		rec, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlank(rec) {
			continue
		}

		var vals [3]string
		for i, col := range interactionColumns {
			v, err := t.field(rec, col)
			if err != nil {
				return nil, err
			}
			vals[i] = strings.TrimSpace(v)
		}
		if vals[0] == "" {
			return nil, t.fail(ColUserID, errEmptyID)
		}
		if vals[1] == "" {
			return nil, t.fail(ColProductID, errEmptyID)
		}
		out = append(out, core.Interaction{UserID: vals[0], ProductID: vals[1], Interaction: vals[2]})
	}
	return out, nil
}

// writeInteractions 以 CSV 写出交互日志（含表头）。
func writeInteractions(w io.Writer, log []core.Interaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(interactionColumns); err != nil {
		return err
	}
	for _, rec := range log {
		if err := cw.Write([]string{rec.UserID, rec.ProductID, rec.Interaction}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
