package basesvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"incentive_hub/internal/common"
)

type sampleDoc struct {
	ID     string `bson:"_id,omitempty"`
	Name   string `bson:"name"`
	Status string `bson:"status,omitempty"`
}

func TestToUpdateData(t *testing.T) {
	t.Run("struct bọc trong $set, bỏ _id", func(t *testing.T) {
		u, err := ToUpdateData(sampleDoc{ID: "x", Name: "Tết 2026"})
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"name": "Tết 2026"}, u.Set)
		assert.Nil(t, u.Inc)
	})

	t.Run("map có operator giữ nguyên", func(t *testing.T) {
		u, err := ToUpdateData(map[string]interface{}{
			"$inc":  map[string]interface{}{"achievements.sku-a": 5},
			"$push": map[string]interface{}{"entries": "e1"},
		})
		require.NoError(t, err)
		assert.Nil(t, u.Set)
		assert.Len(t, u.Inc, 1)
		assert.Equal(t, "e1", u.Push["entries"])
	})

	t.Run("UpdateData truyền thẳng", func(t *testing.T) {
		in := &UpdateData{Set: map[string]interface{}{"status": "active"}}
		u, err := ToUpdateData(in)
		require.NoError(t, err)
		assert.Same(t, in, u)

		u.touch(42)
		assert.Equal(t, int64(42), u.Set["updatedAt"])
	})
}

type statusDoc struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Status  string             `bson:"status"`
	Winners []string           `bson:"winners,omitempty"`
}

func TestUpdateOneConditionalStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("trả về bản ghi sau khi đổi trạng thái, không đọc lại theo filter", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "lastErrorObject", Value: bson.D{{Key: "n", Value: 1}, {Key: "updatedExisting", Value: true}}},
			bson.E{Key: "value", Value: bson.D{
				{Key: "_id", Value: id},
				{Key: "status", Value: "completed"},
				{Key: "winners", Value: bson.A{"u1"}},
			}},
		))
		svc := NewBaseServiceMongo[statusDoc](mt.Coll)

		filter := bson.M{"_id": id, "status": bson.M{"$in": []string{"active"}}}
		got, err := svc.UpdateOne(context.Background(), filter, &UpdateData{Set: map[string]interface{}{
			"status":  "completed",
			"winners": []string{"u1"},
		}}, nil)
		require.NoError(mt, err)
		assert.Equal(mt, id, got.ID)
		assert.Equal(mt, "completed", got.Status)
		assert.Equal(mt, []string{"u1"}, got.Winners)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "findAndModify", started.CommandName)
		assert.True(mt, started.Command.Lookup("new").Boolean(), "phải lấy bản ghi sau khi cập nhật")
		assert.Nil(mt, mt.GetStartedEvent(), "chỉ một lệnh gửi tới server")
	})

	mt.Run("trạng thái hiện tại không khớp thì ErrNotFound", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "lastErrorObject", Value: bson.D{{Key: "n", Value: 0}, {Key: "updatedExisting", Value: false}}},
			bson.E{Key: "value", Value: nil},
		))
		svc := NewBaseServiceMongo[statusDoc](mt.Coll)

		filter := bson.M{"_id": primitive.NewObjectID(), "status": bson.M{"$in": []string{"draft"}}}
		_, err := svc.UpdateOne(context.Background(), filter, &UpdateData{Set: map[string]interface{}{"status": "active"}}, nil)
		assert.ErrorIs(mt, err, common.ErrNotFound)
	})

	mt.Run("upsert gửi cờ upsert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "status", Value: "draft"}}},
		))
		svc := NewBaseServiceMongo[statusDoc](mt.Coll)

		got, err := svc.Upsert(context.Background(), bson.M{"status": "draft"}, &UpdateData{Set: map[string]interface{}{"status": "draft"}})
		require.NoError(mt, err)
		assert.Equal(mt, "draft", got.Status)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.True(mt, started.Command.Lookup("upsert").Boolean())
	})
}
