package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"incentive_hub/internal/distribution"
	"incentive_hub/internal/hierarchy"
)

// Plan file kế hoạch phân bổ. Node được tham chiếu bằng id, đường dẫn tên ("North/Hà Nội/CN1")
// hoặc tên nếu tên là duy nhất trong cây.
type Plan struct {
	Hierarchy  string             `yaml:"hierarchy"`
	Total      float64            `yaml:"total"`
	Algorithm  string             `yaml:"algorithm"`
	Selected   []string           `yaml:"selected"`
	Weights    map[string]float64 `yaml:"weights"`
	Custom     map[string]float64 `yaml:"custom"`
	UserCounts map[string]int     `yaml:"userCounts"`
}

// LoadPlan đọc file YAML; trường lạ bị từ chối để bắt lỗi gõ sai tên khoá
func LoadPlan(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var p Plan
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("đọc kế hoạch %s: %w", path, err)
	}
	if p.Hierarchy == "" {
		return nil, fmt.Errorf("kế hoạch %s thiếu khoá hierarchy", path)
	}
	if !filepath.IsAbs(p.Hierarchy) {
		p.Hierarchy = filepath.Join(filepath.Dir(path), p.Hierarchy)
	}
	return &p, nil
}

// loadHierarchy đọc cây phân cấp từ file CSV Region,Cluster,Branch,Channel
func loadHierarchy(path string) (*hierarchy.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return hierarchy.ImportCSV(f, nil)
}

// resolver ánh xạ tham chiếu trong kế hoạch sang id node
type resolver struct {
	byRef map[string]string
	dup   map[string]bool
}

func newResolver(levels []hierarchy.Level) *resolver {
	r := &resolver{byRef: map[string]string{}, dup: map[string]bool{}}
	for _, l := range levels {
		for _, it := range l.Items {
			r.byRef[it.ID] = it.ID
			r.byRef[strings.ToLower(hierarchy.PathNames(levels, it.ID, "/"))] = it.ID
			name := strings.ToLower(it.Name)
			if _, seen := r.byRef[name]; seen && r.byRef[name] != it.ID {
				r.dup[name] = true
			}
			r.byRef[name] = it.ID
		}
	}
	return r
}

func (r *resolver) resolve(ref string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(ref))
	if r.dup[key] {
		return "", fmt.Errorf("tên %q trùng nhiều node, dùng đường dẫn đầy đủ", ref)
	}
	id, ok := r.byRef[key]
	if !ok {
		if id, ok = r.byRef[strings.TrimSpace(ref)]; !ok {
			return "", fmt.Errorf("không tìm thấy node %q trong cây phân cấp", ref)
		}
	}
	return id, nil
}

func resolveMap[V any](r *resolver, in map[string]V) (map[string]V, error) {
	if in == nil {
		return nil, nil
	}
	out := make(map[string]V, len(in))
	for ref, v := range in {
		id, err := r.resolve(ref)
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}

// Request dựng đầu vào cho distribution.Calculate; selected rỗng = chọn toàn bộ cây
func (p *Plan) Request(levels []hierarchy.Level) (distribution.Request, error) {
	r := newResolver(levels)
	req := distribution.Request{
		Total:     p.Total,
		Levels:    levels,
		Algorithm: distribution.Algorithm(strings.ToLower(p.Algorithm)),
	}
	if len(p.Selected) == 0 {
		for _, l := range levels {
			for _, it := range l.Items {
				req.Selected = append(req.Selected, it.ID)
			}
		}
	}
	for _, ref := range p.Selected {
		id, err := r.resolve(ref)
		if err != nil {
			return req, err
		}
		req.Selected = append(req.Selected, id)
	}

	var err error
	if req.Weights, err = resolveMap(r, p.Weights); err != nil {
		return req, err
	}
	if req.Custom, err = resolveMap(r, p.Custom); err != nil {
		return req, err
	}
	if req.UserCounts, err = resolveMap(r, p.UserCounts); err != nil {
		return req, err
	}
	return req, nil
}
