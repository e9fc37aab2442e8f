package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEmitDataChanged(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	got := make(chan DataChangeEvent, 2)
	OnDataChanged(func(ctx context.Context, e DataChangeEvent) {
		panic("handler hỏng")
	})
	OnDataChanged(func(ctx context.Context, e DataChangeEvent) {
		got <- e
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	EmitDataChanged(ctx, DataChangeEvent{CollectionName: "campaigns", Operation: OpUpdate})

	select {
	case e := <-got:
		assert.Equal(t, "campaigns", e.CollectionName)
		assert.Equal(t, OpUpdate, e.Operation)
	case <-time.After(2 * time.Second):
		t.Fatal("handler không được gọi")
	}
}
