package basehdl

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v3"

	"incentive_hub/internal/common"
	"incentive_hub/internal/logger"
)

// JSONResponse trả về JSON response với Content-Type: application/json; charset=utf-8
func JSONResponse(c fiber.Ctx, statusCode int, data interface{}) error {
	c.Set("Content-Type", "application/json; charset=utf-8")
	return c.Status(statusCode).JSON(data)
}

// ErrorBody dựng body lỗi chuẩn {code, message, details, status:"error"} và HTTP status tương ứng
func ErrorBody(err error) (int, fiber.Map) {
	var customErr *common.Error
	if errors.As(err, &customErr) {
		return customErr.StatusCode, fiber.Map{
			"code":    customErr.Code.Code,
			"message": customErr.Message,
			"details": customErr.Details,
			"status":  "error",
		}
	}
	return common.StatusInternalServerError, fiber.Map{
		"code":    common.ErrCodeInternalServer.Code,
		"message": err.Error(),
		"status":  "error",
	}
}

// HandleResponse chuẩn hoá response: lỗi → ErrorBody, thành công → {code:200, message, data, status:"success"}
func HandleResponse(c fiber.Ctx, data interface{}, err error) error {
	if err != nil {
		status, body := ErrorBody(err)
		if status >= common.StatusInternalServerError {
			logger.WithRequest(c).WithError(err).Error("❌ [API] Lỗi xử lý request")
		}
		return JSONResponse(c, status, body)
	}
	return JSONResponse(c, common.StatusOK, fiber.Map{
		"code":    common.StatusOK,
		"message": common.MsgSuccess,
		"data":    data,
		"status":  "success",
	})
}

// SafeHandlerWrapper bọc handler với recover: panic được log kèm stack và trả về SYS_001
func SafeHandlerWrapper(c fiber.Ctx, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithRequest(c).WithField("stack", string(debug.Stack())).Errorf("💥 [API] Panic trong handler: %v", r)
			err = HandleResponse(c, nil, common.NewError(
				common.ErrCodeInternalServer,
				fmt.Sprintf("Lỗi hệ thống không mong muốn: %v", r),
				common.StatusInternalServerError,
				nil,
			))
		}
	}()
	return fn()
}

// SafeHandler bọc handler với recover
func (h *BaseHandler[T, CreateInput, UpdateInput]) SafeHandler(c fiber.Ctx, handler func() error) error {
	return SafeHandlerWrapper(c, handler)
}

// HandleResponse xử lý và chuẩn hóa response trả về cho client
func (h *BaseHandler[T, CreateInput, UpdateInput]) HandleResponse(c fiber.Ctx, data interface{}, err error) error {
	return HandleResponse(c, data, err)
}
