package utility

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// String2ObjectID chuyển chuỗi hex thành ObjectID, chuỗi sai định dạng trả NilObjectID
func String2ObjectID(id string) primitive.ObjectID {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID
	}
	return objectID
}

// StringArray2ObjectIDArray chuyển mảng chuỗi thành mảng ObjectID, bỏ qua phần tử sai định dạng
func StringArray2ObjectIDArray(ids []string) []primitive.ObjectID {
	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid := String2ObjectID(id); !oid.IsZero() {
			objectIDs = append(objectIDs, oid)
		}
	}
	return objectIDs
}
