// Package events cung cấp cơ chế event trung tâm khi dữ liệu thay đổi qua CRUD.
// BaseServiceMongoImpl tự động phát event; logic phản ứng (xoá cache leaderboard, ...) đăng ký qua OnDataChanged.
package events

import (
	"context"
	"sync"

	"incentive_hub/internal/logger"
)

// OpInsert, OpUpdate, OpUpsert, OpDelete là các loại thao tác CRUD.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// DataChangeEvent mô tả sự kiện thay đổi dữ liệu.
// Document là bản ghi sau khi thay đổi (nil với thao tác hàng loạt).
type DataChangeEvent struct {
	CollectionName string
	Operation      string
	Document       interface{}
}

// DataChangeHandler xử lý sự kiện thay đổi dữ liệu.
type DataChangeHandler func(ctx context.Context, e DataChangeEvent)

var (
	handlers   []DataChangeHandler
	handlersMu sync.RWMutex
)

// OnDataChanged đăng ký handler. Gọi khi khởi động server.
func OnDataChanged(h DataChangeHandler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	handlers = append(handlers, h)
}

// Reset xoá toàn bộ handler (dùng trong test)
func Reset() {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	handlers = nil
}

// EmitDataChanged phát sự kiện. Mỗi handler chạy trong goroutine riêng, panic được recover.
// Handler nhận context tách khỏi request (request có thể đã kết thúc khi handler chạy).
func EmitDataChanged(ctx context.Context, e DataChangeEvent) {
	handlersMu.RLock()
	list := make([]DataChangeHandler, len(handlers))
	copy(list, handlers)
	handlersMu.RUnlock()

	if len(list) == 0 {
		return
	}
	detached := context.WithoutCancel(ctx)
	for _, h := range list {
		go func(fn DataChangeHandler) {
			defer func() {
				if r := recover(); r != nil {
					logger.WithModule("events").WithField("collection", e.CollectionName).Errorf("💥 [EVENTS] Handler panic: %v", r)
				}
			}()
			fn(detached, e)
		}(h)
	}
}
