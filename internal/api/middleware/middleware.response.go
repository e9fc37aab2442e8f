package middleware

import (
	"github.com/gofiber/fiber/v3"

	basehdl "incentive_hub/internal/api/base/handler"
)

// HandleErrorResponse trả về error response chuẩn cho client và dừng chain
func HandleErrorResponse(c fiber.Ctx, err error) error {
	status, body := basehdl.ErrorBody(err)
	return basehdl.JSONResponse(c, status, body)
}
