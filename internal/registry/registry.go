// Package registry giữ các đối tượng dùng chung theo tên (collections, services, ...) một cách thread-safe.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"incentive_hub/internal/common"
)

// Registry lưu các item kiểu T theo tên, an toàn khi truy cập đồng thời.
//
// Example:
//
//	collections := NewRegistry[*mongo.Collection]()
//	collections.Register("campaigns", db.Collection("campaigns"))
//	coll, ok := collections.Get("campaigns")
type Registry[T any] struct {
	items map[string]T
	mu    sync.RWMutex
}

// NewRegistry tạo registry rỗng.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{items: make(map[string]T)}
}

// Register đăng ký item. Trùng tên thì ghi đè.
//
// Returns:
//   - isNew: true nếu tên chưa tồn tại trước đó
//   - err: common.ErrRequiredField nếu name rỗng
func (r *Registry[T]) Register(name string, item T) (isNew bool, err error) {
	if name == "" {
		return false, fmt.Errorf("registry: tên item rỗng: %w", common.ErrRequiredField)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, existed := r.items[name]
	r.items[name] = item
	return !existed, nil
}

// Get lấy item theo tên.
func (r *Registry[T]) Get(name string) (item T, exists bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, exists = r.items[name]
	return item, exists
}

// MustGet lấy item theo tên, trả common.ErrNotFound nếu chưa đăng ký.
func (r *Registry[T]) MustGet(name string) (T, error) {
	item, ok := r.Get(name)
	if !ok {
		var zero T
		return zero, fmt.Errorf("registry: không tìm thấy %q: %w", name, common.ErrNotFound)
	}
	return item, nil
}

// GetOrCreate trả về item đã có, hoặc gọi creator để tạo và đăng ký.
// creator chỉ được gọi tối đa một lần cho mỗi tên.
func (r *Registry[T]) GetOrCreate(name string, creator func() (T, error)) (T, error) {
	if item, ok := r.Get(name); ok {
		return item, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Kiểm tra lại sau khi lấy write lock
	if item, ok := r.items[name]; ok {
		return item, nil
	}

	item, err := creator()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("registry: tạo %q thất bại: %w", name, err)
	}
	r.items[name] = item
	return item, nil
}

// Clear xoá item theo tên. cleanup (nếu có) được gọi trước khi xoá; lỗi cleanup giữ nguyên item.
func (r *Registry[T]) Clear(name string, cleanup func(T) error) (deleted bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[name]
	if !ok {
		return false, nil
	}
	if cleanup != nil {
		if err := cleanup(item); err != nil {
			return false, fmt.Errorf("registry: cleanup %q thất bại: %w", name, err)
		}
	}
	delete(r.items, name)
	return true, nil
}

// ClearAll xoá toàn bộ item, trả về số item đã xoá. Lỗi cleanup đầu tiên được trả về,
// các item còn lại vẫn bị xoá.
func (r *Registry[T]) ClearAll(cleanup func(T) error) (count int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, item := range r.items {
		if cleanup != nil {
			if cerr := cleanup(item); cerr != nil && err == nil {
				err = fmt.Errorf("registry: cleanup %q thất bại: %w", name, cerr)
			}
		}
		delete(r.items, name)
		count++
	}
	return count, err
}

// Names trả về danh sách tên đã đăng ký, sắp xếp tăng dần.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
