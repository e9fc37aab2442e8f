// Package hierarchy mô hình cây tổ chức Region → Cluster → Branch → Channel của một tổ chức,
// lưu dưới dạng danh sách phẳng theo từng cấp.
package hierarchy

import (
	"fmt"
	"strings"

	"incentive_hub/internal/common"
)

// Item một node của cây. ParentID tham chiếu yếu tới node ở cấp ngay trên.
type Item struct {
	ID       string `json:"id" bson:"id" validate:"required"`
	Name     string `json:"name" bson:"name" validate:"required,no_xss"`
	ParentID string `json:"parentId,omitempty" bson:"parentId,omitempty"`
	Level    int    `json:"level" bson:"level" validate:"hierarchy_level"`
}

// Level một cấp của cây, các cấp được sắp theo Level tăng dần
type Level struct {
	ID    string `json:"id" bson:"id"`
	Name  string `json:"name" bson:"name" validate:"required,no_xss"`
	Level int    `json:"level" bson:"level" validate:"hierarchy_level"`
	Items []Item `json:"items" bson:"items" validate:"dive"`
}

// Node dạng cây lồng nhau dùng cho hiển thị
type Node struct {
	Item
	Children []*Node `json:"children"`
}

// LevelNames tên mặc định của 4 cấp
var LevelNames = []string{"Region", "Cluster", "Branch", "Channel"}

// DefaultLevels trả về 4 cấp rỗng Region, Cluster, Branch, Channel
func DefaultLevels() []Level {
	levels := make([]Level, len(LevelNames))
	for i, name := range LevelNames {
		levels[i] = Level{
			ID:    strings.ToLower(name),
			Name:  name,
			Level: i + 1,
			Items: []Item{},
		}
	}
	return levels
}

// Index trả về map id → Item của tất cả các cấp
func Index(levels []Level) map[string]Item {
	idx := make(map[string]Item)
	for _, l := range levels {
		for _, it := range l.Items {
			idx[it.ID] = it
		}
	}
	return idx
}

// ItemCount tổng số node
func ItemCount(levels []Level) int {
	n := 0
	for _, l := range levels {
		n += len(l.Items)
	}
	return n
}

func validationError(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return common.NewValidationError("Cây phân cấp không hợp lệ", msg)
}

// Validate kiểm tra: id duy nhất, số cấp tăng dần, item nằm đúng cấp,
// parentId (nếu có) trỏ tới node ở cấp ngay trên. Trả về lỗi VAL_001 cho vi phạm đầu tiên.
func Validate(levels []Level) error {
	seen := make(map[string]int)
	prev := 0
	for _, l := range levels {
		if l.Level <= prev {
			return validationError("cấp %q có số thứ tự %d không tăng dần", l.Name, l.Level)
		}
		prev = l.Level
		for _, it := range l.Items {
			if strings.TrimSpace(it.ID) == "" {
				return validationError("node %q ở cấp %d thiếu id", it.Name, l.Level)
			}
			if strings.TrimSpace(it.Name) == "" {
				return validationError("node %s thiếu tên", it.ID)
			}
			if _, dup := seen[it.ID]; dup {
				return validationError("id %s bị trùng", it.ID)
			}
			if it.Level != l.Level {
				return validationError("node %s có level %d nhưng nằm ở cấp %d", it.ID, it.Level, l.Level)
			}
			seen[it.ID] = it.Level
		}
	}

	for _, l := range levels {
		for _, it := range l.Items {
			if it.ParentID == "" {
				if it.Level != levels[0].Level {
					return validationError("node %s ở cấp %d thiếu parentId", it.ID, it.Level)
				}
				continue
			}
			parentLevel, ok := seen[it.ParentID]
			if !ok {
				return validationError("node %s trỏ tới parent %s không tồn tại", it.ID, it.ParentID)
			}
			if parentLevel >= it.Level {
				return validationError("parent %s của node %s không nằm ở cấp trên", it.ParentID, it.ID)
			}
		}
	}
	return nil
}

// BuildTree dựng cây lồng nhau theo thứ tự cấp và thứ tự item.
// Node có parent không tồn tại được gắn làm root.
func BuildTree(levels []Level) []*Node {
	nodes := make(map[string]*Node)
	var roots []*Node

	for _, l := range levels {
		for _, it := range l.Items {
			n := &Node{Item: it, Children: []*Node{}}
			nodes[it.ID] = n
			if parent, ok := nodes[it.ParentID]; ok && it.ParentID != "" {
				parent.Children = append(parent.Children, n)
			} else {
				roots = append(roots, n)
			}
		}
	}
	if roots == nil {
		roots = []*Node{}
	}
	return roots
}

// Children các node con trực tiếp của id
func Children(levels []Level, id string) []Item {
	var out []Item
	for _, l := range levels {
		for _, it := range l.Items {
			if it.ParentID == id {
				out = append(out, it)
			}
		}
	}
	return out
}

// Descendants tất cả node con cháu của id (không gồm id), theo thứ tự cấp
func Descendants(levels []Level, id string) []Item {
	inSubtree := map[string]bool{id: true}
	var out []Item
	for _, l := range levels {
		for _, it := range l.Items {
			if it.ParentID != "" && inSubtree[it.ParentID] {
				inSubtree[it.ID] = true
				out = append(out, it)
			}
		}
	}
	return out
}

// PathTo đường đi từ root tới id (gồm cả id). Không tìm thấy trả nil.
func PathTo(levels []Level, id string) []Item {
	idx := Index(levels)
	it, ok := idx[id]
	if !ok {
		return nil
	}
	path := []Item{it}
	visited := map[string]bool{id: true}
	for it.ParentID != "" {
		parent, ok := idx[it.ParentID]
		if !ok || visited[parent.ID] {
			break
		}
		visited[parent.ID] = true
		path = append([]Item{parent}, path...)
		it = parent
	}
	return path
}

// PathNames tên các node trên đường đi tới id, nối bằng sep
func PathNames(levels []Level, id, sep string) string {
	path := PathTo(levels, id)
	names := make([]string, len(path))
	for i, it := range path {
		names[i] = it.Name
	}
	return strings.Join(names, sep)
}
