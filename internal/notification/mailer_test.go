package notification

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gopkg.in/gomail.v2"

	campmodels "incentive_hub/internal/api/campaign/models"
	"incentive_hub/config"
	"incentive_hub/internal/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init(&logger.LogConfig{Level: "error", Format: "text", Output: "stdout"})
	os.Exit(m.Run())
}

type recordingDialer struct {
	messages []*gomail.Message
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	d.messages = append(d.messages, m...)
	return nil
}

func sampleCampaign() *campmodels.Campaign {
	return &campmodels.Campaign{
		ID:          primitive.NewObjectID(),
		Name:        "Q2 <Push>",
		CompletedAt: 1_700_000_000_000,
		Winners: []campmodels.Winner{
			{Rank: 1, UserName: "Lan", RegionName: "North", Score: 120, Prize: "Gold"},
		},
	}
}

func TestSendCampaignResults(t *testing.T) {
	dialer := &recordingDialer{}
	m := NewMailerWith("noreply@example.com", dialer)

	require.NoError(t, m.SendCampaignResults(context.Background(), sampleCampaign(), []string{"a@example.com", "b@example.com"}))
	require.Len(t, dialer.messages, 2)
	assert.Equal(t, []string{"b@example.com"}, dialer.messages[1].GetHeader("To"))
	assert.Len(t, dialer.messages[0].GetHeader("Subject"), 1)

	var buf bytes.Buffer
	_, err := dialer.messages[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.NotEmpty(t, buf.String())
}

func TestRenderResultsEscapes(t *testing.T) {
	body, err := RenderResults(sampleCampaign())
	require.NoError(t, err)
	assert.Contains(t, body, "Q2 &lt;Push&gt;")
	assert.Contains(t, body, "<td>Lan</td>")
	assert.Contains(t, body, "120.00")

	empty, err := RenderResults(&campmodels.Campaign{Name: "x"})
	require.NoError(t, err)
	assert.True(t, strings.Contains(empty, "Không có người đạt giải"))
}

func TestMailerDisabled(t *testing.T) {
	m := NewMailer(&config.Configuration{})
	assert.False(t, m.Enabled())
	assert.NoError(t, m.SendCampaignResults(context.Background(), sampleCampaign(), []string{"a@example.com"}))

	m = NewMailer(&config.Configuration{SMTPHost: "smtp.example.com", SMTPPort: 587, SMTPFrom: "x@example.com"})
	assert.True(t, m.Enabled())
}
