package gateway

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/example/storefront/pkg/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func respond(c *gin.Context, status int, message string, data any) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error response. Server-side failures are logged.
func (g *Gateway) fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		g.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	abort(c, status, service.Message(err))
}

func (g *Gateway) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (g *Gateway) tooLargeMessage() string {
	return fmt.Sprintf("image must be less than %dMB", g.maxUpload>>20)
}

// formImage opens an optional uploaded file. It returns a nil reader when
// the field is absent; ok is false once an error response has been written.
func (g *Gateway) formImage(c *gin.Context, field string) (r io.Reader, closeFn func(), ok bool) {
	noop := func() {}
	fh, err := c.FormFile(field)
	switch {
	case err == nil:
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, noop, true
	case isTooLarge(err):
		abort(c, http.StatusBadRequest, g.tooLargeMessage())
		return nil, noop, false
	default:
		abort(c, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return nil, noop, false
	}

	if fh.Size > g.maxUpload {
		abort(c, http.StatusBadRequest, g.tooLargeMessage())
		return nil, noop, false
	}
	if ct := fh.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") && ct != "application/octet-stream" {
		abort(c, http.StatusBadRequest, "only image uploads are allowed")
		return nil, noop, false
	}
	f, err := fh.Open()
	if err != nil {
		g.fail(c, err)
		return nil, noop, false
	}
	return f, func() { f.Close() }, true
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return errors.Is(err, multipart.ErrMessageTooLarge) || strings.Contains(err.Error(), "request body too large")
}
