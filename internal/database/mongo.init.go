package database

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"incentive_hub/internal/global"
	"incentive_hub/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionNames trả về tên các collection khai báo trong global.MongoDB_ColNames
func CollectionNames() []string {
	v := reflect.ValueOf(global.MongoDB_ColNames)
	names := make([]string, 0, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		if name := v.Field(i).String(); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// EnsureDatabaseAndCollections tạo các collection còn thiếu. Database được Mongo tạo tự động
// khi collection đầu tiên được tạo.
func EnsureDatabaseAndCollections(client *mongo.Client, dbName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := client.Database(dbName)
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("không thể lấy danh sách collection: %w", err)
	}
	has := make(map[string]bool, len(existing))
	for _, name := range existing {
		has[name] = true
	}

	for _, name := range CollectionNames() {
		if has[name] {
			continue
		}
		logger.GetAppLogger().Infof("🗄️ [MONGODB] Collection %s chưa tồn tại, tạo mới", name)
		if err := db.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("không thể tạo collection %s: %w", name, err)
		}
	}
	return nil
}

// indexSpec một index cần có trên collection, suy ra từ tag `index` của model
type indexSpec struct {
	Name    string
	Keys    bson.D
	Unique  bool
	Sparse  bool
	TTL     *int32
	IsText  bool
	IsField bool // index đơn trường tên {field}_unique, dùng khi dọn index cũ
}

func (s indexSpec) options() *options.IndexOptions {
	opts := options.Index().SetName(s.Name)
	if s.Unique {
		opts.SetUnique(true)
	}
	if s.Sparse {
		opts.SetSparse(true)
	}
	if s.TTL != nil {
		opts.SetExpireAfterSeconds(*s.TTL)
	}
	return opts
}

// parseIndexTag tách tag index.
// Cú pháp: "single,order:-1;unique,sparse;ttl:3600;compound:org_status;text"
func parseIndexTag(tag string) []map[string]string {
	var result []map[string]string
	for _, part := range strings.Split(tag, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		entry := map[string]string{}
		for _, sub := range strings.Split(part, ",") {
			kv := strings.SplitN(strings.TrimSpace(sub), ":", 2)
			if len(kv) == 2 {
				entry[kv[0]] = kv[1]
			} else {
				entry[kv[0]] = ""
			}
		}
		result = append(result, entry)
	}
	return result
}

func orderOf(entry map[string]string) int {
	if entry["order"] == "-1" {
		return -1
	}
	return 1
}

// planIndexes đọc tag `index` trên các field của model và trả về danh sách index cần tạo.
// Index compound được gom theo tên nhóm; tên nhóm chứa "_unique" thì index là unique.
func planIndexes(model interface{}) ([]indexSpec, error) {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var specs []indexSpec
	compound := map[string]*indexSpec{}
	var compoundOrder []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag, ok := field.Tag.Lookup("index")
		if !ok {
			continue
		}
		bsonField := strings.Split(field.Tag.Get("bson"), ",")[0]
		if bsonField == "" || bsonField == "-" {
			continue
		}

		for _, entry := range parseIndexTag(tag) {
			if _, ok := entry["text"]; ok {
				specs = append(specs, indexSpec{Name: bsonField + "_text", Keys: bson.D{{Key: bsonField, Value: "text"}}, IsText: true})
			}
			if _, ok := entry["single"]; ok {
				specs = append(specs, indexSpec{Name: bsonField + "_single", Keys: bson.D{{Key: bsonField, Value: orderOf(entry)}}})
			}
			if _, ok := entry["unique"]; ok {
				_, sparse := entry["sparse"]
				specs = append(specs, indexSpec{Name: bsonField + "_unique", Keys: bson.D{{Key: bsonField, Value: 1}}, Unique: true, Sparse: sparse, IsField: true})
			}
			if v, ok := entry["ttl"]; ok {
				ttl, err := strconv.Atoi(v)
				if err != nil {
					return nil, fmt.Errorf("TTL không hợp lệ ở field %s: %w", field.Name, err)
				}
				ttl32 := int32(ttl)
				specs = append(specs, indexSpec{Name: bsonField + "_ttl", Keys: bson.D{{Key: bsonField, Value: 1}}, TTL: &ttl32})
			}
			if group, ok := entry["compound"]; ok && group != "" {
				spec, exists := compound[group]
				if !exists {
					spec = &indexSpec{Name: group, Unique: strings.Contains(group, "_unique")}
					compound[group] = spec
					compoundOrder = append(compoundOrder, group)
				}
				spec.Keys = append(spec.Keys, bson.E{Key: bsonField, Value: orderOf(entry)})
				if _, sparse := entry["sparse"]; sparse {
					spec.Sparse = true
				}
			}
		}
	}

	for _, group := range compoundOrder {
		specs = append(specs, *compound[group])
	}
	return specs, nil
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

// sameIndex so sánh index đang có trên Mongo với indexSpec mong muốn
func sameIndex(existing bson.M, spec indexSpec) bool {
	keys, ok := existing["key"].(bson.M)
	if !ok || len(keys) != len(spec.Keys) {
		return false
	}
	for _, k := range spec.Keys {
		ev, exists := keys[k.Key]
		if !exists {
			return false
		}
		if want, isInt := k.Value.(int); isInt {
			got, ok := toInt(ev)
			if !ok || got != want {
				return false
			}
		} else if ev != k.Value {
			return false
		}
	}

	unique, _ := existing["unique"].(bool)
	if unique != spec.Unique {
		return false
	}
	if spec.TTL != nil {
		ttl, ok := toInt(existing["expireAfterSeconds"])
		if !ok || ttl != int(*spec.TTL) {
			return false
		}
	}
	return true
}

// CreateIndexes đồng bộ index của collection theo tag `index` của model:
// tạo index mới, thay index sai cấu hình, xoá index {field}_unique không còn khai báo.
func CreateIndexes(ctx context.Context, collection *mongo.Collection, model interface{}) error {
	log := logger.GetAppLogger().WithField("collection", collection.Name())

	specs, err := planIndexes(model)
	if err != nil {
		return err
	}

	cursor, err := collection.Indexes().List(ctx)
	if err != nil {
		return fmt.Errorf("không thể lấy danh sách index: %w", err)
	}
	existing := map[string]bson.M{}
	for cursor.Next(ctx) {
		var info bson.M
		if err := cursor.Decode(&info); err != nil {
			_ = cursor.Close(ctx)
			return fmt.Errorf("không thể giải mã thông tin index: %w", err)
		}
		if name, ok := info["name"].(string); ok {
			existing[name] = info
		}
	}
	_ = cursor.Close(ctx)

	declared := map[string]bool{}
	for _, spec := range specs {
		declared[spec.Name] = true
		if info, ok := existing[spec.Name]; ok {
			if sameIndex(info, spec) {
				continue
			}
			if _, err := collection.Indexes().DropOne(ctx, spec.Name); err != nil {
				return fmt.Errorf("không thể xoá index %s: %w", spec.Name, err)
			}
			log.Infof("🗄️ [INDEX] Đã xoá index sai cấu hình: %s", spec.Name)
		}
		if _, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: spec.Keys, Options: spec.options()}); err != nil {
			return fmt.Errorf("không thể tạo index %s: %w", spec.Name, err)
		}
		log.Infof("🗄️ [INDEX] Đã tạo index: %s", spec.Name)
	}

	for name, info := range existing {
		if !strings.HasSuffix(name, "_unique") || declared[name] {
			continue
		}
		if unique, _ := info["unique"].(bool); !unique {
			continue
		}
		if _, err := collection.Indexes().DropOne(ctx, name); err != nil {
			// Không chặn việc khởi động
			log.WithError(err).Warnf("🗄️ [INDEX] Không thể xoá unique index cũ %s", name)
			continue
		}
		log.Infof("🗄️ [INDEX] Đã xoá unique index không còn khai báo: %s", name)
	}
	return nil
}
