package xerr

import "errors"

var (
	// 通用错误
	ErrInternalServer = errors.New("服务器内部错误")

	// 客户端请求错误
	ErrInvalidParams   = errors.New("无效的请求参数")
	ErrFileTooLarge    = errors.New("上传文件过大，超出限制")
	ErrFileNameInvalid = errors.New("文件名包含非法字符")

	// 存储准入错误
	ErrInsufficientStorage = errors.New("磁盘剩余空间不足，无法接收上传")

	// 资源未找到错误
	ErrFileNotFound  = errors.New("文件不存在")
	ErrShareNotFound = errors.New("分享链接不存在")

	// 分享链接状态错误
	ErrShareExpired           = errors.New("分享链接已过期")
	ErrShareExhausted         = errors.New("分享链接下载次数已用完")
	ErrSharePasswordRequired  = errors.New("分享链接需要密码")
	ErrSharePasswordIncorrect = errors.New("分享链接密码不正确")

	// 数据库与磁盘错误
	ErrDatabaseError = errors.New("数据库操作失败")
	ErrStorageError  = errors.New("磁盘读写失败")
)
