package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestErrorIs(t *testing.T) {
	wrapped := fmt.Errorf("load campaign: %w", ErrNotFound)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrDuplicate))

	same := NewError(ErrCodeDatabaseQuery, MsgDataNotFound, StatusNotFound, "chi tiết khác")
	assert.True(t, errors.Is(same, ErrNotFound), "cùng mã và message phải được coi là bằng nhau")
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsNotFound(mongo.ErrNoDocuments))
	assert.True(t, IsNotFound(fmt.Errorf("x: %w", mongo.ErrNoDocuments)))
	assert.False(t, IsNotFound(ErrInvalidInput))
	assert.False(t, IsNotFound(nil))
}

func TestConvertMongoError(t *testing.T) {
	assert.Nil(t, ConvertMongoError(nil))
	assert.Equal(t, ErrNotFound, ConvertMongoError(mongo.ErrNoDocuments))
	assert.Equal(t, ErrInvalidInput, ConvertMongoError(ErrInvalidInput))

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.Equal(t, ErrMongoDuplicate, ConvertMongoError(dup))

	assert.Equal(t, ErrMongoQuery, ConvertMongoError(mongo.CommandError{Code: 301, Message: "cursor"}))

	generic := ConvertMongoError(errors.New("boom"))
	var appErr *Error
	if assert.True(t, errors.As(generic, &appErr)) {
		assert.Equal(t, ErrCodeDatabase.Code, appErr.Code.Code)
		assert.Equal(t, StatusInternalServerError, appErr.StatusCode)
	}
}
