package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/3Eeeecho/go-filebox/internal/config"
	"github.com/3Eeeecho/go-filebox/internal/pkg/logger"
	"github.com/3Eeeecho/go-filebox/internal/pkg/xerr"
	"github.com/3Eeeecho/go-filebox/internal/services/explorer"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FileHandler struct {
	fileService explorer.FileService
	cfg         *config.Config
}

func NewFileHandler(fileService explorer.FileService, cfg *config.Config) *FileHandler {
	return &FileHandler{
		fileService: fileService,
		cfg:         cfg,
	}
}

// ListFiles 获取文件列表
// @Summary 获取文件列表
// @Description 列出上传目录中的所有文件，按修改时间倒序
// @Tags 文件
// @Produce json
// @Success 200 {object} xerr.Response "文件列表"
// @Router /api/v1/files [get]
func (h *FileHandler) ListFiles(c *gin.Context) {
	files, err := h.fileService.ListFiles(c.Request.Context())
	if err != nil {
		logger.Error("ListFiles: 获取文件列表失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "获取文件列表失败")
		return
	}
	xerr.Success(c, http.StatusOK, "获取文件列表成功", gin.H{
		"files": files,
		"total": len(files),
	})
}

// UploadFile 处理 multipart 表单上传
// @Summary 上传文件
// @Description 通过 multipart/form-data 上传单个文件，表单字段名为 file
// @Tags 文件
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "待上传的文件"
// @Success 200 {object} xerr.Response "上传成功"
// @Failure 400 {object} xerr.Response "请求参数无效"
// @Failure 413 {object} xerr.Response "文件超出大小限制"
// @Failure 507 {object} xerr.Response "磁盘剩余空间不足"
// @Router /api/v1/files/upload [post]
func (h *FileHandler) UploadFile(c *gin.Context) {
	// 直接读 multipart 流，避免 gin 先把大文件缓冲到临时文件
	reader, err := c.Request.MultipartReader()
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求不是合法的 multipart 表单: "+err.Error())
		return
	}

	var part *multipartFilePart
	for {
		p, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "解析 multipart 表单失败: "+err.Error())
			return
		}
		if p.FormName() == "file" && p.FileName() != "" {
			part = &multipartFilePart{name: p.FileName(), body: p}
			break
		}
		p.Close()
	}
	if part == nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "表单中缺少 file 字段")
		return
	}
	defer part.body.Close()

	// multipart 无法预知单个文件的确切大小，传 -1 走流式写入
	info, err := h.fileService.Upload(c.Request.Context(), part.name, -1, part.body)
	if err != nil {
		h.respondUploadError(c, err)
		return
	}

	xerr.Success(c, http.StatusOK, "文件上传成功", info)
}

// UploadFileStream 处理原始请求体上传
// @Summary 流式上传文件
// @Description 将请求体整体作为文件内容上传，文件名通过 X-Filename 头指定，
// @Description Content-Length 必须是文件的确切字节数
// @Tags 文件
// @Accept octet-stream
// @Produce json
// @Param X-Filename header string true "文件名（可经 URL 编码）"
// @Success 200 {object} xerr.Response "上传成功"
// @Failure 400 {object} xerr.Response "请求参数无效"
// @Failure 413 {object} xerr.Response "文件超出大小限制"
// @Failure 507 {object} xerr.Response "磁盘剩余空间不足"
// @Router /api/v1/files/upload/stream [put]
func (h *FileHandler) UploadFileStream(c *gin.Context) {
	name := c.GetHeader("X-Filename")
	if name == "" {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "缺少 X-Filename 头")
		return
	}
	// 允许客户端对非 ASCII 文件名做 URL 编码
	if decoded, err := url.QueryUnescape(name); err == nil {
		name = decoded
	}

	declaredSize := c.Request.ContentLength
	if declaredSize < 0 {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "缺少 Content-Length 头")
		return
	}

	info, err := h.fileService.Upload(c.Request.Context(), name, declaredSize, c.Request.Body)
	if err != nil {
		h.respondUploadError(c, err)
		return
	}

	xerr.Success(c, http.StatusOK, "文件上传成功", info)
}

// DownloadFile 下载文件
// @Summary 下载文件
// @Description 以附件形式返回指定文件的内容
// @Tags 文件
// @Produce octet-stream
// @Param filename path string true "文件名"
// @Success 200 {file} file "文件内容"
// @Failure 404 {object} xerr.Response "文件不存在"
// @Router /api/v1/files/download/{filename} [get]
func (h *FileHandler) DownloadFile(c *gin.Context) {
	name := c.Param("filename")
	if name == "" {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "文件名不能为空")
		return
	}

	info, reader, err := h.fileService.Download(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, xerr.ErrFileNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.FileNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrFileNameInvalid) {
			xerr.Error(c, http.StatusBadRequest, xerr.FileNameInvalidCode, err.Error())
		} else {
			logger.Error("DownloadFile: 打开文件失败", zap.String("file", name), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.StorageErrorCode, "下载文件失败")
		}
		return
	}
	defer reader.Close()

	streamAttachment(c, info.Name, info.MimeType, info.Size, reader)
}

// DeleteFile 删除文件
// @Summary 删除文件
// @Description 删除上传目录中的指定文件
// @Tags 文件
// @Produce json
// @Param filename path string true "文件名"
// @Success 200 {object} xerr.Response "删除成功"
// @Failure 404 {object} xerr.Response "文件不存在"
// @Router /api/v1/files/{filename} [delete]
func (h *FileHandler) DeleteFile(c *gin.Context) {
	name := c.Param("filename")
	if name == "" {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "文件名不能为空")
		return
	}

	if err := h.fileService.Delete(c.Request.Context(), name); err != nil {
		if errors.Is(err, xerr.ErrFileNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.FileNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrFileNameInvalid) {
			xerr.Error(c, http.StatusBadRequest, xerr.FileNameInvalidCode, err.Error())
		} else {
			logger.Error("DeleteFile: 删除文件失败", zap.String("file", name), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.StorageErrorCode, "删除文件失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "文件删除成功", gin.H{"filename": name})
}

// GetStorageInfo 获取存储信息
// @Summary 获取存储信息
// @Description 返回磁盘使用情况、文件数量和上传限制
// @Tags 文件
// @Produce json
// @Success 200 {object} xerr.Response "存储信息"
// @Router /api/v1/storage [get]
func (h *FileHandler) GetStorageInfo(c *gin.Context) {
	info, err := h.fileService.StorageInfo(c.Request.Context())
	if err != nil {
		logger.Error("GetStorageInfo: 获取存储信息失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.StorageErrorCode, "获取存储信息失败")
		return
	}
	xerr.Success(c, http.StatusOK, "获取存储信息成功", info)
}

// respondUploadError 把上传服务返回的错误映射为 HTTP 响应
func (h *FileHandler) respondUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, xerr.ErrInvalidParams):
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
	case errors.Is(err, xerr.ErrFileNameInvalid):
		xerr.Error(c, http.StatusBadRequest, xerr.FileNameInvalidCode, err.Error())
	case errors.Is(err, xerr.ErrFileTooLarge):
		xerr.Error(c, http.StatusRequestEntityTooLarge, xerr.FileTooLargeCode, err.Error())
	case errors.Is(err, xerr.ErrInsufficientStorage):
		xerr.Error(c, http.StatusInsufficientStorage, xerr.InsufficientStorageCode, err.Error())
	default:
		logger.Error("UploadFile: 上传文件失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.StorageErrorCode, "上传文件失败")
	}
}

// multipartFilePart 保存 multipart 流中第一个文件字段的信息
type multipartFilePart struct {
	name string
	body io.ReadCloser
}

// streamAttachment 以附件形式流式返回文件内容，
// Content-Disposition 同时带普通和 RFC 5987 编码的文件名
func streamAttachment(c *gin.Context, fileName, mimeType string, size int64, reader io.Reader) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	encodedFileName := url.PathEscape(fileName)
	contentDisposition := fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`,
		asciiFallbackName(fileName), encodedFileName)

	c.Header("Content-Disposition", contentDisposition)
	c.Header("Content-Type", mimeType)
	if size >= 0 {
		c.Header("Content-Length", fmt.Sprintf("%d", size))
	}

	if _, err := io.Copy(c.Writer, reader); err != nil {
		// 响应头已经发出，只能记录日志
		logger.Error("streamAttachment: 流式传输文件内容失败",
			zap.String("file", fileName), zap.Error(err))
	}
}

// asciiFallbackName 为老客户端生成纯 ASCII 的 filename 值
func asciiFallbackName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r > 31 && r < 127 && r != '"' && r != '\\' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "download"
	}
	return b.String()
}
