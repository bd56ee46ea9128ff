package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/3Eeeecho/go-filebox/internal/config"
	"github.com/3Eeeecho/go-filebox/internal/pkg/logger"
	"github.com/3Eeeecho/go-filebox/internal/pkg/xerr"
	"github.com/3Eeeecho/go-filebox/internal/services/share"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ShareHandler struct {
	shareService share.ShareService
	cfg          *config.Config
}

func NewShareHandler(shareService share.ShareService, cfg *config.Config) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		cfg:          cfg,
	}
}

type CreateShareRequest struct {
	FileName         string  `json:"filename" binding:"required"`
	Password         *string `json:"password"`
	ExpiresInMinutes *int    `json:"expires_in_minutes"` // 以分钟为单位
	MaxDownloads     *int64  `json:"max_downloads"`
}

// CreateShare 创建分享链接
// @Summary 创建分享链接
// @Description 为指定文件创建可分享链接，可设置密码、有效期和最大下载次数
// @Tags 分享
// @Accept json
// @Produce json
// @Param request body CreateShareRequest true "分享链接信息"
// @Success 200 {object} xerr.Response "分享链接创建成功"
// @Failure 400 {object} xerr.Response "请求参数无效"
// @Failure 404 {object} xerr.Response "文件未找到"
// @Router /api/v1/shares [post]
func (h *ShareHandler) CreateShare(c *gin.Context) {
	var req CreateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	s, err := h.shareService.CreateShare(c.Request.Context(), req.FileName, req.Password, req.ExpiresInMinutes, req.MaxDownloads)
	if err != nil {
		if errors.Is(err, xerr.ErrFileNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.FileNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrInvalidParams) || errors.Is(err, xerr.ErrFileNameInvalid) {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
		} else {
			logger.Error("CreateShare: 创建分享链接失败", zap.String("file", req.FileName), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "创建分享链接失败")
		}
		return
	}

	shareURL := fmt.Sprintf("%s/share/%s", h.cfg.Server.BaseURL, s.UUID)
	xerr.Success(c, http.StatusOK, "分享链接创建成功", gin.H{
		"share":     s.Summary(),
		"share_url": shareURL,
	})
}

// ListSharesForFile 列出文件的有效分享链接
// @Summary 列出文件的分享链接
// @Description 列出指定文件当前仍然有效的所有分享链接
// @Tags 分享
// @Produce json
// @Param filename path string true "文件名"
// @Success 200 {object} xerr.Response "分享链接列表"
// @Router /api/v1/shares/file/{filename} [get]
func (h *ShareHandler) ListSharesForFile(c *gin.Context) {
	name := c.Param("filename")
	if name == "" {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "文件名不能为空")
		return
	}

	shares, err := h.shareService.ListSharesForFile(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, xerr.ErrFileNameInvalid) {
			xerr.Error(c, http.StatusBadRequest, xerr.FileNameInvalidCode, err.Error())
			return
		}
		logger.Error("ListSharesForFile: 获取分享列表失败", zap.String("file", name), zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "获取分享列表失败")
		return
	}

	xerr.Success(c, http.StatusOK, "获取分享列表成功", gin.H{
		"shares": shares,
		"total":  len(shares),
	})
}

// DeleteShare 删除分享链接
// @Summary 删除分享链接
// @Description 撤销一个分享链接，链接不存在时同样返回成功
// @Tags 分享
// @Produce json
// @Param share_uuid path string true "分享链接 UUID"
// @Success 200 {object} xerr.Response "删除成功"
// @Router /api/v1/shares/{share_uuid} [delete]
func (h *ShareHandler) DeleteShare(c *gin.Context) {
	shareUUID := c.Param("share_uuid")
	if shareUUID == "" {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "分享UUID不能为空")
		return
	}

	if err := h.shareService.DeleteShare(c.Request.Context(), shareUUID); err != nil {
		logger.Error("DeleteShare: 删除分享链接失败", zap.String("uuid", shareUUID), zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "删除分享链接失败")
		return
	}

	xerr.Success(c, http.StatusOK, "分享链接已删除", gin.H{"share_uuid": shareUUID})
}

// GetShareDetails 获取分享链接详情
// @Summary 获取分享链接详情
// @Description 根据分享 UUID 获取链接和文件的元数据（不包括文件内容），用于展示给下载者
// @Tags 分享
// @Produce json
// @Param share_uuid path string true "分享链接 UUID"
// @Success 200 {object} xerr.Response "分享链接详情"
// @Failure 404 {object} xerr.Response "分享链接不存在"
// @Failure 410 {object} xerr.Response "分享链接已过期或下载次数已用完"
// @Router /share/{share_uuid}/details [get]
func (h *ShareHandler) GetShareDetails(c *gin.Context) {
	shareUUID := c.Param("share_uuid")
	if shareUUID == "" {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "分享UUID不能为空")
		return
	}

	summary, fileInfo, err := h.shareService.GetShareDetails(c.Request.Context(), shareUUID)
	if err != nil {
		h.respondShareError(c, "GetShareDetails", shareUUID, err)
		return
	}

	xerr.Success(c, http.StatusOK, "获取链接详情成功", gin.H{
		"share": summary,
		"file":  fileInfo,
	})
}

// DownloadSharedFile 下载分享的文件
// @Summary 下载分享内容
// @Description 根据分享 UUID 下载文件，成功开始传输时消耗一次下载次数
// @Tags 分享
// @Produce octet-stream
// @Param share_uuid path string true "分享链接 UUID"
// @Param password query string false "分享密码（如果需要）"
// @Success 200 {file} file "文件内容"
// @Failure 403 {object} xerr.Response "分享链接需要密码或密码不正确"
// @Failure 404 {object} xerr.Response "分享链接不存在"
// @Failure 410 {object} xerr.Response "分享链接已过期或下载次数已用完"
// @Router /share/{share_uuid}/download [get]
func (h *ShareHandler) DownloadSharedFile(c *gin.Context) {
	shareUUID := c.Param("share_uuid")
	if shareUUID == "" {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "分享UUID不能为空")
		return
	}

	password := c.Query("password")
	if password == "" {
		password = c.GetHeader("X-Share-Password")
	}
	var providedPassword *string
	if password != "" {
		providedPassword = &password
	}

	info, reader, err := h.shareService.Consume(c.Request.Context(), shareUUID, providedPassword)
	if err != nil {
		h.respondShareError(c, "DownloadSharedFile", shareUUID, err)
		return
	}
	defer reader.Close()

	streamAttachment(c, info.Name, info.MimeType, info.Size, reader)
}

// respondShareError 把分享服务返回的错误映射为 HTTP 响应
func (h *ShareHandler) respondShareError(c *gin.Context, op, shareUUID string, err error) {
	switch {
	case errors.Is(err, xerr.ErrShareNotFound):
		xerr.Error(c, http.StatusNotFound, xerr.ShareNotFoundCode, err.Error())
	case errors.Is(err, xerr.ErrFileNotFound):
		xerr.Error(c, http.StatusNotFound, xerr.FileNotFoundCode, err.Error())
	case errors.Is(err, xerr.ErrShareExpired):
		xerr.Error(c, http.StatusGone, xerr.ShareExpiredCode, err.Error())
	case errors.Is(err, xerr.ErrShareExhausted):
		xerr.Error(c, http.StatusGone, xerr.ShareExhaustedCode, err.Error())
	case errors.Is(err, xerr.ErrSharePasswordRequired):
		xerr.Error(c, http.StatusForbidden, xerr.SharePasswordRequiredCode, err.Error())
	case errors.Is(err, xerr.ErrSharePasswordIncorrect):
		xerr.Error(c, http.StatusForbidden, xerr.SharePasswordIncorrectCode, err.Error())
	default:
		logger.Error(op+": 处理分享请求失败", zap.String("uuid", shareUUID), zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "处理分享请求失败")
	}
}
