// package basesvc cung cấp các service cơ bản cho việc tương tác với MongoDB
package basesvc

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	basemodels "incentive_hub/internal/api/base/models"
	"incentive_hub/internal/api/events"
	"incentive_hub/internal/common"
	"incentive_hub/internal/utility"
)

// UpdateData định nghĩa kiểu dữ liệu cho partial update
type UpdateData struct {
	Set         map[string]interface{} `bson:"$set,omitempty"`         // Các trường cần update
	SetOnInsert map[string]interface{} `bson:"$setOnInsert,omitempty"` // Các trường chỉ set khi insert (upsert tạo mới)
	Unset       map[string]interface{} `bson:"$unset,omitempty"`       // Các trường cần xóa
	Inc         map[string]interface{} `bson:"$inc,omitempty"`         // Các trường số cần cộng dồn
	Push        map[string]interface{} `bson:"$push,omitempty"`        // Các trường cần thêm vào array
	AddToSet    map[string]interface{} `bson:"$addToSet,omitempty"`    // Các trường cần thêm vào set
}

// ToUpdateData chuyển đổi interface{} thành UpdateData.
// Struct/map thường được bọc trong $set; map đã có operator ($set, $inc, ...) được giữ nguyên.
func ToUpdateData(data interface{}) (*UpdateData, error) {
	switch v := data.(type) {
	case *UpdateData:
		return v, nil
	case UpdateData:
		return &v, nil
	}

	dataMap, err := utility.ToMap(data)
	if err != nil {
		return nil, err
	}

	if hasOperator(dataMap) {
		update := &UpdateData{}
		update.Set, _ = dataMap["$set"].(map[string]interface{})
		update.SetOnInsert, _ = dataMap["$setOnInsert"].(map[string]interface{})
		update.Unset, _ = dataMap["$unset"].(map[string]interface{})
		update.Inc, _ = dataMap["$inc"].(map[string]interface{})
		update.Push, _ = dataMap["$push"].(map[string]interface{})
		update.AddToSet, _ = dataMap["$addToSet"].(map[string]interface{})
		return update, nil
	}

	delete(dataMap, "_id")
	return &UpdateData{Set: dataMap}, nil
}

func hasOperator(m map[string]interface{}) bool {
	for _, op := range []string{"$set", "$setOnInsert", "$unset", "$inc", "$push", "$addToSet"} {
		if _, ok := m[op]; ok {
			return true
		}
	}
	return false
}

// touch thêm updatedAt vào $set
func (u *UpdateData) touch(now int64) {
	if u.Set == nil {
		u.Set = make(map[string]interface{})
	}
	u.Set["updatedAt"] = now
}

// ====================================
// INTERFACE VÀ STRUCT
// ====================================

// BaseServiceMongo các phương thức cơ bản cho việc tương tác với một collection MongoDB
type BaseServiceMongo[Model any] interface {
	InsertOne(ctx context.Context, data Model) (Model, error)
	InsertMany(ctx context.Context, data []Model) ([]Model, error)
	FindOne(ctx context.Context, filter interface{}, opts *options.FindOneOptions) (Model, error)
	Find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]Model, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts *options.UpdateOptions) (Model, error)
	UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts *options.UpdateOptions) (int64, error)
	DeleteOne(ctx context.Context, filter interface{}) error
	DeleteMany(ctx context.Context, filter interface{}) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)

	FindOneById(ctx context.Context, id primitive.ObjectID) (Model, error)
	FindManyByIds(ctx context.Context, ids []primitive.ObjectID) ([]Model, error)
	FindWithPagination(ctx context.Context, filter interface{}, page, limit int64, opts *options.FindOptions) (*basemodels.PaginateResult[Model], error)
	UpdateById(ctx context.Context, id primitive.ObjectID, data interface{}) (Model, error)
	DeleteById(ctx context.Context, id primitive.ObjectID) error
	Upsert(ctx context.Context, filter interface{}, data interface{}) (Model, error)
	DocumentExists(ctx context.Context, filter interface{}) (bool, error)
}

// BaseServiceMongoImpl triển khai BaseServiceMongo cho model T
type BaseServiceMongoImpl[T any] struct {
	collection *mongo.Collection
}

// NewBaseServiceMongo tạo mới một BaseServiceMongoImpl
func NewBaseServiceMongo[T any](collection *mongo.Collection) *BaseServiceMongoImpl[T] {
	return &BaseServiceMongoImpl[T]{collection: collection}
}

// Collection trả về collection MongoDB (dùng khi cần aggregate hoặc truy vấn đặc thù)
func (s *BaseServiceMongoImpl[T]) Collection() *mongo.Collection {
	return s.collection
}

func (s *BaseServiceMongoImpl[T]) emit(ctx context.Context, op string, doc interface{}) {
	events.EmitDataChanged(ctx, events.DataChangeEvent{
		CollectionName: s.collection.Name(),
		Operation:      op,
		Document:       doc,
	})
}

func normalizeFilter(filter interface{}) interface{} {
	if filter == nil {
		return bson.D{}
	}
	if m, ok := filter.(map[string]interface{}); ok && len(m) == 0 {
		return bson.D{}
	}
	return filter
}

// decodeOne đọc một document, ErrNoDocuments → common.ErrNotFound
func decodeOne[T any](res *mongo.SingleResult) (T, error) {
	var out T
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return out, common.ErrNotFound
		}
		return out, common.ConvertMongoError(err)
	}
	if err := res.Decode(&out); err != nil {
		return out, common.NewError(common.ErrCodeValidationFormat, "Lỗi định dạng dữ liệu khi decode từ MongoDB", common.StatusBadRequest, err.Error())
	}
	return out, nil
}

// ====================================
// NHÓM 1: CÁC HÀM CHUẨN MONGODB DRIVER
// ====================================

// InsertOne tạo mới một bản ghi, gắn createdAt/updatedAt (mili giây)
func (s *BaseServiceMongoImpl[T]) InsertOne(ctx context.Context, data T) (T, error) {
	var zero T

	dataMap, err := utility.ToMap(data)
	if err != nil {
		return zero, common.ErrInvalidFormat
	}

	// Bỏ field chuỗi rỗng để sparse unique index bỏ qua
	for key, value := range dataMap {
		if str, ok := value.(string); ok && str == "" {
			delete(dataMap, key)
		}
	}

	now := time.Now().UnixMilli()
	dataMap["createdAt"] = now
	dataMap["updatedAt"] = now

	result, err := s.collection.InsertOne(ctx, dataMap)
	if err != nil {
		return zero, common.ConvertMongoError(err)
	}

	created, err := decodeOne[T](s.collection.FindOne(ctx, bson.M{"_id": result.InsertedID}))
	if err != nil {
		return zero, err
	}
	s.emit(ctx, events.OpInsert, created)
	return created, nil
}

// InsertMany tạo nhiều bản ghi
func (s *BaseServiceMongoImpl[T]) InsertMany(ctx context.Context, data []T) ([]T, error) {
	if len(data) == 0 {
		return []T{}, nil
	}
	now := time.Now().UnixMilli()
	docs := make([]interface{}, 0, len(data))
	for _, item := range data {
		m, err := utility.ToMap(item)
		if err != nil {
			return nil, common.ErrInvalidFormat
		}
		m["createdAt"] = now
		m["updatedAt"] = now
		docs = append(docs, m)
	}

	result, err := s.collection.InsertMany(ctx, docs)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}

	created, err := s.Find(ctx, bson.M{"_id": bson.M{"$in": result.InsertedIDs}}, nil)
	if err != nil {
		return nil, err
	}
	for _, doc := range created {
		s.emit(ctx, events.OpInsert, doc)
	}
	return created, nil
}

// FindOne tìm một document theo điều kiện lọc
func (s *BaseServiceMongoImpl[T]) FindOne(ctx context.Context, filter interface{}, opts *options.FindOneOptions) (T, error) {
	if opts == nil {
		opts = options.FindOne()
	}
	return decodeOne[T](s.collection.FindOne(ctx, normalizeFilter(filter), opts))
}

// Find tìm tất cả bản ghi theo điều kiện lọc, luôn trả về slice khác nil
func (s *BaseServiceMongoImpl[T]) Find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]T, error) {
	if opts == nil {
		opts = options.Find()
	}

	cursor, err := s.collection.Find(ctx, normalizeFilter(filter), opts)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	results := []T{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return results, nil
}

// UpdateOne cập nhật một document và trả về bản ghi sau khi cập nhật.
// Bản ghi trả về lấy từ chính lệnh findAndModify, không đọc lại theo filter: filter có thể ràng buộc
// field vừa bị đổi (ví dụ status) nên sẽ không còn khớp sau khi ghi.
func (s *BaseServiceMongoImpl[T]) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts *options.UpdateOptions) (T, error) {
	var zero T

	updateData, err := ToUpdateData(update)
	if err != nil {
		return zero, common.ErrInvalidFormat
	}
	updateData.touch(time.Now().UnixMilli())

	upsert := opts != nil && opts.Upsert != nil && *opts.Upsert
	findOpts := options.FindOneAndUpdate().SetReturnDocument(options.After).SetUpsert(upsert)
	if opts != nil && opts.ArrayFilters != nil {
		findOpts.SetArrayFilters(*opts.ArrayFilters)
	}

	updated, err := decodeOne[T](s.collection.FindOneAndUpdate(ctx, normalizeFilter(filter), updateData, findOpts))
	if err != nil {
		return zero, err
	}

	op := events.OpUpdate
	if upsert {
		op = events.OpUpsert
	}
	s.emit(ctx, op, updated)
	return updated, nil
}

// UpdateMany cập nhật nhiều document, trả về số document đã sửa
func (s *BaseServiceMongoImpl[T]) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts *options.UpdateOptions) (int64, error) {
	updateData, err := ToUpdateData(update)
	if err != nil {
		return 0, common.ErrInvalidFormat
	}
	updateData.touch(time.Now().UnixMilli())

	result, err := s.collection.UpdateMany(ctx, normalizeFilter(filter), updateData, opts)
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}
	if result.ModifiedCount > 0 {
		s.emit(ctx, events.OpUpdate, nil)
	}
	return result.ModifiedCount, nil
}

// DeleteOne xóa một document
func (s *BaseServiceMongoImpl[T]) DeleteOne(ctx context.Context, filter interface{}) error {
	existing, err := s.FindOne(ctx, filter, nil)
	if err != nil {
		return err
	}
	result, err := s.collection.DeleteOne(ctx, normalizeFilter(filter))
	if err != nil {
		return common.ConvertMongoError(err)
	}
	if result.DeletedCount == 0 {
		return common.ErrNotFound
	}
	s.emit(ctx, events.OpDelete, existing)
	return nil
}

// DeleteMany xóa nhiều document
func (s *BaseServiceMongoImpl[T]) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	result, err := s.collection.DeleteMany(ctx, normalizeFilter(filter))
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}
	if result.DeletedCount > 0 {
		s.emit(ctx, events.OpDelete, nil)
	}
	return result.DeletedCount, nil
}

// CountDocuments đếm số lượng document
func (s *BaseServiceMongoImpl[T]) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, normalizeFilter(filter))
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}
	return count, nil
}

// ====================================
// NHÓM 2: CÁC HÀM TIỆN ÍCH MỞ RỘNG
// ====================================

// FindOneById tìm một document theo ObjectId
func (s *BaseServiceMongoImpl[T]) FindOneById(ctx context.Context, id primitive.ObjectID) (T, error) {
	return s.FindOne(ctx, bson.M{"_id": id}, nil)
}

// FindManyByIds tìm nhiều document theo danh sách ID
func (s *BaseServiceMongoImpl[T]) FindManyByIds(ctx context.Context, ids []primitive.ObjectID) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	return s.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

// FindWithPagination tìm bản ghi theo trang. page < 1 → 1, limit <= 0 → 10
func (s *BaseServiceMongoImpl[T]) FindWithPagination(ctx context.Context, filter interface{}, page, limit int64, opts *options.FindOptions) (*basemodels.PaginateResult[T], error) {
	filter = normalizeFilter(filter)
	if opts == nil {
		opts = options.Find()
	}
	page, limit = basemodels.NormalizePage(page, limit)
	opts.SetSkip((page - 1) * limit)
	opts.SetLimit(limit)

	total, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	items, err := s.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return basemodels.NewPaginateResult(items, page, limit, total), nil
}

// UpdateById cập nhật một document theo ObjectId
func (s *BaseServiceMongoImpl[T]) UpdateById(ctx context.Context, id primitive.ObjectID, data interface{}) (T, error) {
	return s.UpdateOne(ctx, bson.M{"_id": id}, data, nil)
}

// DeleteById xóa một document theo ObjectId
func (s *BaseServiceMongoImpl[T]) DeleteById(ctx context.Context, id primitive.ObjectID) error {
	return s.DeleteOne(ctx, bson.M{"_id": id})
}

// Upsert cập nhật nếu tồn tại, tạo mới nếu chưa có. createdAt chỉ set khi tạo mới.
func (s *BaseServiceMongoImpl[T]) Upsert(ctx context.Context, filter interface{}, data interface{}) (T, error) {
	var zero T
	updateData, err := ToUpdateData(data)
	if err != nil {
		return zero, common.ErrInvalidFormat
	}
	if updateData.SetOnInsert == nil {
		updateData.SetOnInsert = make(map[string]interface{})
	}
	if _, ok := updateData.SetOnInsert["createdAt"]; !ok {
		updateData.SetOnInsert["createdAt"] = time.Now().UnixMilli()
	}
	return s.UpdateOne(ctx, filter, updateData, options.Update().SetUpsert(true))
}

// DocumentExists kiểm tra xem một document có tồn tại không
func (s *BaseServiceMongoImpl[T]) DocumentExists(ctx context.Context, filter interface{}) (bool, error) {
	count, err := s.collection.CountDocuments(ctx, normalizeFilter(filter), options.Count().SetLimit(1))
	if err != nil {
		return false, common.ConvertMongoError(err)
	}
	return count > 0, nil
}
