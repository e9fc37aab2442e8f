package basehdl

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v3"

	"incentive_hub/internal/common"
)

// MaxUploadSize giới hạn kích thước file CSV upload
const MaxUploadSize = 5 << 20

// ReadUpload đọc file upload: ưu tiên multipart field, nếu không có thì lấy raw body (text/csv).
// Trả về nội dung và tên file (rỗng khi gửi raw body).
func ReadUpload(c fiber.Ctx, field string) ([]byte, string, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile(field)
		if err != nil {
			return nil, "", common.NewValidationError("Thiếu file upload", field)
		}
		if fh.Size > MaxUploadSize {
			return nil, "", common.NewValidationError("File vượt quá dung lượng cho phép", fh.Size)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, "", common.NewError(common.ErrCodeValidationFormat, "Không đọc được file upload", common.StatusBadRequest, err.Error())
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, MaxUploadSize+1))
		if err != nil {
			return nil, "", common.NewError(common.ErrCodeValidationFormat, "Không đọc được file upload", common.StatusBadRequest, err.Error())
		}
		return data, fh.Filename, nil
	}

	body := c.Body()
	if len(body) == 0 {
		return nil, "", common.NewValidationError("Thiếu file upload", field)
	}
	if len(body) > MaxUploadSize {
		return nil, "", common.NewValidationError("File vượt quá dung lượng cho phép", len(body))
	}
	return append([]byte(nil), body...), "", nil
}
