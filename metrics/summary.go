package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Sample 是一个指标样本的扁平表示，用于在命令行中输出。
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Snapshot 从 gatherer 收集 prefix 开头的 counter / gauge / histogram(count) 样本。
func Snapshot(g prometheus.Gatherer, prefix string) ([]Sample, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	var out []Sample
	for _, mf := range families {
		name := mf.GetName()
		if len(name) < len(prefix) || name[:len(prefix)] != prefix {
			continue
		}
		for _, m := range mf.GetMetric() {
			s := Sample{Name: name, Labels: labelMap(m.GetLabel())}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				s.Value = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				s.Value = m.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				s.Name = name + "_count"
				s.Value = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func labelMap(pairs []*dto.LabelPair) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		m[p.GetName()] = p.GetValue()
	}
	return m
}
