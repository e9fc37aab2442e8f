package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const filteredKey = "_filtered"

// AsyncHook đưa log entry vào channel và ghi ra writers trong goroutine riêng.
// Khi channel đầy, entry bị bỏ qua để không block request.
type AsyncHook struct {
	writers []io.Writer
	entries chan *logrus.Entry
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

// NewAsyncHook tạo async hook với nhiều writers. bufferSize <= 0 dùng 1000
func NewAsyncHook(writers []io.Writer, bufferSize int) *AsyncHook {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	h := &AsyncHook{
		writers: writers,
		entries: make(chan *logrus.Entry, bufferSize),
	}
	h.wg.Add(1)
	go h.process()
	return h
}

// Levels trả về các level hook xử lý
func (h *AsyncHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire không block: entry được copy rồi gửi vào channel
func (h *AsyncHook) Fire(entry *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		// Hook đã đóng: ghi thẳng
		h.write(entry)
		return nil
	}

	select {
	case h.entries <- copyEntry(entry):
	default:
	}
	return nil
}

// copyEntry copy entry kèm Data vì logrus tái sử dụng entry sau khi Fire trả về
func copyEntry(entry *logrus.Entry) *logrus.Entry {
	cp := *entry
	cp.Data = make(logrus.Fields, len(entry.Data))
	for k, v := range entry.Data {
		cp.Data[k] = v
	}
	return &cp
}

func (h *AsyncHook) process() {
	defer h.wg.Done()
	for entry := range h.entries {
		func() {
			defer func() {
				if r := recover(); r != nil {
					fmt.Fprintf(os.Stderr, "[LOGGER PANIC] %v\n", r)
				}
			}()
			h.write(entry)
		}()
	}
}

func (h *AsyncHook) write(entry *logrus.Entry) {
	if filtered, ok := entry.Data[filteredKey].(bool); ok && filtered {
		return
	}
	delete(entry.Data, filteredKey)

	var data []byte
	var err error
	if entry.Logger != nil && entry.Logger.Formatter != nil {
		data, err = entry.Logger.Formatter.Format(entry)
	} else {
		var line string
		line, err = entry.String()
		data = []byte(line)
	}
	if err != nil {
		return
	}
	for _, w := range h.writers {
		_, _ = w.Write(data)
	}
}

// Close đóng channel và đợi ghi hết các entry còn lại
func (h *AsyncHook) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	close(h.entries)
	h.mu.Unlock()

	h.wg.Wait()
	return nil
}

// FilterHook đánh dấu entry bị lọc theo module, level hoặc HTTP method.
type FilterHook struct {
	modules  map[string]bool
	logTypes map[string]bool
	methods  map[string]bool
	mu       sync.RWMutex
}

// NewFilterHook tạo filter hook từ cấu hình
func NewFilterHook(cfg *LogConfig) *FilterHook {
	h := &FilterHook{}
	h.UpdateFilters(cfg)
	return h
}

// UpdateFilters cập nhật bộ lọc lúc runtime
func (h *FilterHook) UpdateFilters(cfg *LogConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.modules = parseFilter(cfg.FilterModules)
	h.logTypes = parseFilter(cfg.FilterLogTypes)
	h.methods = parseFilter(cfg.FilterMethods)
}

// parseFilter: "a,b,c" -> {a,b,c}; rỗng hoặc "*" -> nil (cho phép tất cả)
func parseFilter(filterStr string) map[string]bool {
	filterStr = strings.TrimSpace(filterStr)
	if filterStr == "" || filterStr == "*" {
		return nil
	}
	result := make(map[string]bool)
	for _, v := range strings.Split(filterStr, ",") {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "*" {
			return nil
		}
		if v != "" {
			result[v] = true
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// Levels trả về các level hook xử lý
func (h *FilterHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire đánh dấu "_filtered" nếu entry không qua được bộ lọc.
// Entry không có field tương ứng (module, method) thì không bị lọc theo field đó.
func (h *FilterHook) Fire(entry *logrus.Entry) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.logTypes != nil && !h.logTypes[strings.ToLower(entry.Level.String())] {
		entry.Data[filteredKey] = true
		return nil
	}
	if h.modules != nil {
		if module, ok := entry.Data["module"].(string); ok && module != "" && !h.modules[strings.ToLower(module)] {
			entry.Data[filteredKey] = true
			return nil
		}
	}
	if h.methods != nil {
		if method, ok := entry.Data["method"].(string); ok && method != "" && !h.methods[strings.ToLower(method)] {
			entry.Data[filteredKey] = true
			return nil
		}
	}
	return nil
}
