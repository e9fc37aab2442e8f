// Package database quản lý kết nối MongoDB, collections và index theo struct tag của model.
package database

import (
	"context"
	"fmt"
	"time"

	"incentive_hub/config"
	"incentive_hub/internal/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// GetInstance kết nối MongoDB theo MONGODB_CONNECTION_URI và ping kiểm tra.
func GetInstance(c *config.Configuration) (*mongo.Client, error) {
	if c == nil || c.MongoDB_ConnectionURI == "" {
		return nil, fmt.Errorf("chuỗi kết nối MongoDB rỗng")
	}

	clientOptions := options.Client().ApplyURI(c.MongoDB_ConnectionURI).
		SetMaxPoolSize(50).
		SetMinPoolSize(10).
		SetConnectTimeout(5 * time.Second).
		SetSocketTimeout(10 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("không thể kết nối MongoDB: %w", err)
	}

	if err := Ping(client, 2*time.Second); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.GetAppLogger().WithField("database", c.MongoDB_DBName).Info("🗄️ [MONGODB] Kết nối thành công")
	return client, nil
}

// Ping kiểm tra kết nối tới primary trong khoảng timeout
func Ping(client *mongo.Client, timeout time.Duration) error {
	if client == nil {
		return fmt.Errorf("mongo client chưa được khởi tạo")
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping MongoDB thất bại: %w", err)
	}
	return nil
}

// CloseInstance đóng kết nối MongoDB
func CloseInstance(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.GetAppLogger().WithError(err).Error("🗄️ [MONGODB] Đóng kết nối thất bại")
		return err
	}
	logger.GetAppLogger().Info("🗄️ [MONGODB] Đã đóng kết nối")
	return nil
}
