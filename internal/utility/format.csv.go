package utility

import (
	"bufio"
	"fmt"
	"io"
	"net/url"

	"github.com/valyala/fasthttp"

	"incentive_hub/internal/logger"
)

// SendCSV thiết lập header tải file và stream nội dung CSV do write sinh ra.
// Lỗi trong lúc ghi chỉ được log vì status đã gửi đi.
func SendCSV(ctx *fasthttp.RequestCtx, filename string, write func(w io.Writer) error) {
	ctx.Response.Header.Set("Content-Type", "text/csv; charset=utf-8")
	ctx.Response.Header.Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, filename, url.PathEscape(filename)))
	ctx.SetStatusCode(fasthttp.StatusOK)

	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		if err := write(w); err != nil {
			logger.GetAppLogger().WithError(err).WithField("file", filename).Error("📄 [CSV] Lỗi khi stream file CSV")
		}
		if err := w.Flush(); err != nil {
			logger.GetAppLogger().WithError(err).WithField("file", filename).Warn("📄 [CSV] Client ngắt kết nối khi tải file")
		}
	})
}
