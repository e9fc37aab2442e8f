package campsvc

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	basesvc "incentive_hub/internal/api/base/service"
	campmodels "incentive_hub/internal/api/campaign/models"
	"incentive_hub/internal/leaderboard"
)

// Các test dưới đây chạy CampaignService trên BaseServiceMongoImpl thật với deployment giả lập của driver,
// để đổi trạng thái có điều kiện đi qua đúng lệnh findAndModify gửi tới MongoDB.

func toDoc(t testing.TB, v interface{}) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var d bson.D
	require.NoError(t, bson.Unmarshal(raw, &d))
	return d
}

func findAndModifyReply(doc interface{}) bson.D {
	n := 1
	if doc == nil {
		n = 0
	}
	return mtest.CreateSuccessResponse(
		bson.E{Key: "lastErrorObject", Value: bson.D{{Key: "n", Value: n}, {Key: "updatedExisting", Value: n == 1}}},
		bson.E{Key: "value", Value: doc},
	)
}

// statusFilter giá trị status.$in trong filter của lệnh findAndModify
func statusFilter(t testing.TB, cmd bson.Raw) []string {
	t.Helper()
	values, err := cmd.Lookup("query", "status", "$in").Array().Values()
	require.NoError(t, err)
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.StringValue())
	}
	return out
}

func mongoCampaign(orgID primitive.ObjectID) campmodels.Campaign {
	return campmodels.Campaign{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		Name:           "Tết 2026",
		ContestType:    campmodels.ContestIndividual,
		Status:         campmodels.StatusDraft,
		TargetConfigs:  []campmodels.TargetConfig{{SkuID: "sku-a", TargetType: "volume", Target: 200}},
		UserTargets: []leaderboard.UserTarget{
			{UserID: "u1", UserName: "Lan", RegionName: "North", Targets: map[string]float64{"sku-a": 100}},
			{UserID: "u2", UserName: "Minh", RegionName: "South", Targets: map[string]float64{"sku-a": 100}},
		},
		PrizeStructure: []campmodels.Prize{{Rank: 1, Title: "Gold"}},
	}
}

func TestLifecycleOnMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	orgID := primitive.NewObjectID()

	mt.Run("kích hoạt trả về bản ghi đã active", func(mt *mtest.T) {
		c := mongoCampaign(orgID)
		active := c
		active.Status = campmodels.StatusActive
		mt.AddMockResponses(findAndModifyReply(toDoc(mt, active)))

		svc := NewCampaignServiceWith(basesvc.NewBaseServiceMongo[campmodels.Campaign](mt.Coll), Dependencies{})
		got, err := svc.ActivateCampaign(ctx, &c)
		require.NoError(mt, err)
		assert.Equal(mt, campmodels.StatusActive, got.Status)
		assert.Equal(mt, c.ID, got.ID)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "findAndModify", started.CommandName)
		assert.Equal(mt, []string{campmodels.StatusDraft}, statusFilter(mt, started.Command))
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("huỷ theo id", func(mt *mtest.T) {
		c := mongoCampaign(orgID)
		cancelled := c
		cancelled.Status = campmodels.StatusCancelled
		ns := fmt.Sprintf("%s.%s", mt.DB.Name(), mt.Coll.Name())
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(mt, c)),
			findAndModifyReply(toDoc(mt, cancelled)),
		)

		svc := NewCampaignServiceWith(basesvc.NewBaseServiceMongo[campmodels.Campaign](mt.Coll), Dependencies{})
		got, err := svc.Cancel(ctx, orgID, c.ID)
		require.NoError(mt, err)
		assert.Equal(mt, campmodels.StatusCancelled, got.Status)

		require.Equal(mt, "find", mt.GetStartedEvent().CommandName)
		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, []string{campmodels.StatusDraft, campmodels.StatusActive}, statusFilter(mt, started.Command))
	})

	mt.Run("kết thúc lưu người thắng và gửi thông báo", func(mt *mtest.T) {
		c := mongoCampaign(orgID)
		c.Status = campmodels.StatusActive
		completed := c
		completed.Status = campmodels.StatusCompleted
		completed.Winners = []campmodels.Winner{{Rank: 1, UserID: "u1", UserName: "Lan", RegionName: "North", Score: 80, Prize: "Gold"}}
		mt.AddMockResponses(findAndModifyReply(toDoc(mt, completed)))

		notifier := &fakeNotifier{}
		svc := NewCampaignServiceWith(basesvc.NewBaseServiceMongo[campmodels.Campaign](mt.Coll), Dependencies{
			Users:        fakeDirectory{},
			Achievements: &fakeAchievements{data: map[string]map[string]float64{"u1": {"sku-a": 80}, "u2": {"sku-a": 30}}},
			Notifier:     notifier,
		})
		got, err := svc.CompleteCampaign(ctx, &c)
		require.NoError(mt, err)
		assert.Equal(mt, campmodels.StatusCompleted, got.Status)
		require.Len(mt, got.Winners, 1)
		assert.Equal(mt, "u1", got.Winners[0].UserID)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, []string{campmodels.StatusActive}, statusFilter(mt, started.Command))
		winners, err := started.Command.Lookup("update", "$set", "winners").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, winners, 1)
		assert.Equal(mt, "u1", winners[0].Document().Lookup("userId").StringValue())

		require.Len(mt, notifier.sent, 1, "người thắng phải nhận email kết quả")
		assert.Contains(mt, notifier.recipients, "u1")
	})

	mt.Run("trạng thái đã bị đổi ở nơi khác thì báo lỗi trạng thái", func(mt *mtest.T) {
		c := mongoCampaign(orgID)
		mt.AddMockResponses(findAndModifyReply(nil))

		svc := NewCampaignServiceWith(basesvc.NewBaseServiceMongo[campmodels.Campaign](mt.Coll), Dependencies{})
		_, err := svc.ActivateCampaign(ctx, &c)
		assert.Equal(mt, "BIZ_001", appError(mt.T, err).Code.Code)
	})
}
