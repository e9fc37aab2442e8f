// Package targetcsv đọc file CSV chỉ tiêu theo người dùng (user_id,user_name,region,<mã SKU...>)
// dùng để ghi đè chỉ tiêu do thuật toán phân bổ sinh ra.
package targetcsv

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"incentive_hub/internal/csvio"
	"incentive_hub/internal/leaderboard"
)

// Các cột cố định
const (
	HeaderUserID   = "user_id"
	HeaderUserName = "user_name"
	HeaderRegion   = "region"
)

// FixedHeaders thứ tự cột cố định trong file mẫu
var FixedHeaders = []string{HeaderUserID, HeaderUserName, HeaderRegion}

// Column một cột SKU: Code là tên cột trong file, SkuID là khoá lưu trong chỉ tiêu
type Column struct {
	SkuID string `json:"skuId"`
	Code  string `json:"code"`
}

// Warning cảnh báo không chặn việc import
type Warning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Upload kết quả đọc file. Error khác rỗng thì Targets rỗng.
type Upload struct {
	Targets  []leaderboard.UserTarget `json:"targets"`
	Error    string                   `json:"error,omitempty"`
	Warnings []Warning                `json:"warnings"`
	Encoding string                   `json:"encoding"`
}

// OK true khi không có lỗi
func (u *Upload) OK() bool {
	return u.Error == ""
}

var numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber đọc phần số ở đầu chuỗi như parseFloat: "12abc" → 12, "1,5" → 1, "abc" → 0
func ParseNumber(s string) float64 {
	m := numberPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		// Tràn số mũ: lấy phần trước số mũ
		if base := strings.IndexAny(m, "eE"); base > 0 {
			v, err = strconv.ParseFloat(m[:base], 64)
		}
		if err != nil {
			return 0
		}
	}
	return v
}

func fail(u *Upload, format string, args ...interface{}) *Upload {
	u.Error = fmt.Sprintf(format, args...)
	u.Targets = []leaderboard.UserTarget{}
	return u
}

// Parse đọc file chỉ tiêu. Không trả error: lỗi định dạng được ghi vào Upload.Error.
// Header so khớp không phân biệt hoa thường; dòng thiếu/thừa cột được đệm/cắt kèm cảnh báo.
func Parse(data []byte, columns []Column) *Upload {
	u := &Upload{Targets: []leaderboard.UserTarget{}, Warnings: []Warning{}}

	records, enc, err := csvio.ReadAll(data)
	u.Encoding = enc
	if err != nil {
		return fail(u, "Không đọc được file CSV: %v", err)
	}
	if len(records) == 0 {
		return fail(u, "File CSV rỗng")
	}

	header := records[0]
	pos := make(map[string]int, len(header))
	for i, h := range header {
		key := csvio.NormalizeKey(h)
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}

	var missing []string
	for _, h := range FixedHeaders {
		if _, ok := pos[h]; !ok {
			missing = append(missing, h)
		}
	}
	skuPos := make([]int, len(columns))
	for i, c := range columns {
		p, ok := pos[csvio.NormalizeKey(c.Code)]
		if !ok {
			missing = append(missing, c.Code)
			continue
		}
		skuPos[i] = p
	}
	if len(missing) > 0 {
		return fail(u, "Thiếu cột bắt buộc: %s", strings.Join(missing, ", "))
	}

	for rowIdx, rec := range records[1:] {
		rowNum := rowIdx + 2
		switch {
		case len(rec) < len(header):
			u.Warnings = append(u.Warnings, Warning{Row: rowNum, Message: fmt.Sprintf("Dòng có %d cột, thiếu so với header (%d), các ô thiếu tính là 0", len(rec), len(header))})
			rec = append(rec, make([]string, len(header)-len(rec))...)
		case len(rec) > len(header):
			u.Warnings = append(u.Warnings, Warning{Row: rowNum, Message: fmt.Sprintf("Dòng có %d cột, nhiều hơn header (%d), các ô thừa bị bỏ qua", len(rec), len(header))})
			rec = rec[:len(header)]
		}

		ut := leaderboard.UserTarget{
			UserID:     csvio.CleanCell(rec[pos[HeaderUserID]]),
			UserName:   csvio.CleanCell(rec[pos[HeaderUserName]]),
			RegionName: csvio.CleanCell(rec[pos[HeaderRegion]]),
			Targets:    make(map[string]float64, len(columns)),
		}
		if ut.UserID == "" {
			u.Warnings = append(u.Warnings, Warning{Row: rowNum, Message: "Thiếu user_id"})
		}
		for i, c := range columns {
			ut.Targets[c.SkuID] = ParseNumber(rec[skuPos[i]])
		}
		u.Targets = append(u.Targets, ut)
	}
	return u
}

// Template dòng header của file mẫu
func Template(columns []Column) string {
	cells := append([]string{}, FixedHeaders...)
	for _, c := range columns {
		cells = append(cells, c.Code)
	}
	return strings.Join(cells, ",") + "\n"
}
