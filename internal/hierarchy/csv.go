package hierarchy

import (
	"fmt"
	"io"

	"incentive_hub/internal/common"
	"incentive_hub/internal/csvio"

	"github.com/google/uuid"
)

// ImportWarning cảnh báo cho một dòng CSV bị bỏ qua
type ImportWarning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult kết quả import: cây sau khi gộp, số node mới và các cảnh báo
type ImportResult struct {
	Levels   []Level         `json:"levels"`
	Created  int             `json:"created"`
	Rows     int             `json:"rows"`
	Warnings []ImportWarning `json:"warnings"`
	Encoding string          `json:"encoding"`
}

// newID sinh id cho node mới; biến để test thay thế
var newID = func() string { return uuid.NewString() }

func cloneLevels(existing []Level) []Level {
	levels := DefaultLevels()
	for i := range levels {
		if i < len(existing) {
			levels[i].ID = existing[i].ID
			levels[i].Name = existing[i].Name
			levels[i].Items = append([]Item{}, existing[i].Items...)
		}
	}
	return levels
}

func nodeKey(parentID, name string) string {
	return parentID + "\x00" + csvio.NormalizeKey(name)
}

// ImportCSV đọc file header Region,Cluster,Branch,Channel (không phân biệt hoa thường, chấp nhận BOM)
// và gộp vào existing. Mỗi dòng là một đường đi từ Region xuống; node trùng (cùng parent, cùng tên)
// được dùng lại. Dòng có ô trống xen giữa bị bỏ qua kèm cảnh báo.
func ImportCSV(r io.Reader, existing []Level) (*ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("đọc file CSV thất bại: %w", err)
	}
	records, enc, err := csvio.ReadAll(data)
	if err != nil {
		return nil, common.NewValidationError("File CSV không hợp lệ", err.Error())
	}
	if len(records) == 0 {
		return nil, common.NewValidationError("File CSV rỗng", nil)
	}

	// Vị trí các cột theo header
	cols := make([]int, len(LevelNames))
	header := map[string]int{}
	for i, h := range records[0] {
		header[csvio.NormalizeKey(h)] = i
	}
	var missing []string
	for i, name := range LevelNames {
		pos, ok := header[csvio.NormalizeKey(name)]
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols[i] = pos
	}
	if len(missing) > 0 {
		return nil, common.NewValidationError("Thiếu cột bắt buộc trong file CSV", map[string]interface{}{"missing": missing})
	}

	levels := cloneLevels(existing)
	known := make(map[string]string)
	for _, l := range levels {
		for _, it := range l.Items {
			known[nodeKey(it.ParentID, it.Name)] = it.ID
		}
	}

	result := &ImportResult{Encoding: enc, Warnings: []ImportWarning{}}
	for rowIdx, rec := range records[1:] {
		rowNum := rowIdx + 2
		path, gap := rowPath(rec, cols)
		if gap {
			result.Warnings = append(result.Warnings, ImportWarning{Row: rowNum, Message: "Dòng có ô trống xen giữa các cấp, đã bỏ qua"})
			continue
		}
		if len(path) == 0 {
			continue
		}
		result.Rows++

		parentID := ""
		for depth, name := range path {
			key := nodeKey(parentID, name)
			id, ok := known[key]
			if !ok {
				id = newID()
				known[key] = id
				levels[depth].Items = append(levels[depth].Items, Item{
					ID:       id,
					Name:     name,
					ParentID: parentID,
					Level:    levels[depth].Level,
				})
				result.Created++
			}
			parentID = id
		}
	}

	result.Levels = levels
	return result, nil
}

// rowPath lấy các tên node theo thứ tự cột; gap = true nếu có ô trống rồi lại có ô có dữ liệu
func rowPath(rec []string, cols []int) (path []string, gap bool) {
	ended := false
	for _, c := range cols {
		cell := ""
		if c < len(rec) {
			cell = csvio.CleanCell(rec[c])
		}
		if cell == "" {
			ended = true
			continue
		}
		if ended {
			return nil, true
		}
		path = append(path, cell)
	}
	return path, false
}

// ExportCSV ghi mỗi đường đi root → lá thành một dòng, header Region,Cluster,Branch,Channel.
// Tên node nằm ở cột ứng với Level của nó, các cột còn lại để trống.
func ExportCSV(w io.Writer, levels []Level) error {
	cw, err := csvio.NewWriter(w, true)
	if err != nil {
		return err
	}
	if err := cw.Write(LevelNames); err != nil {
		return err
	}

	var walk func(n *Node, row []string) error
	walk = func(n *Node, row []string) error {
		row = append([]string{}, row...)
		row[levelColumn(n.Level)] = n.Name
		if len(n.Children) == 0 {
			return cw.Write(row)
		}
		for _, child := range n.Children {
			if err := walk(child, row); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range BuildTree(levels) {
		if err := walk(root, make([]string, len(LevelNames))); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func levelColumn(level int) int {
	switch {
	case level < 1:
		return 0
	case level > len(LevelNames):
		return len(LevelNames) - 1
	}
	return level - 1
}
