package xerr

// 定义了统一的业务错误码
const (
	SuccessCode = 20000 // 通用成功码

	// --- 客户端请求错误系列 (400xx) ---
	InvalidParamsCode   = 40000 // 无效的请求参数
	FileTooLargeCode    = 40003 // 文件过大
	FileNameInvalidCode = 40004 // 文件名无效

	// --- 认证与授权错误系列 (401xx/403xx) ---
	SharePasswordRequiredCode  = 40302 // 分享需要密码
	SharePasswordIncorrectCode = 40303 // 分享密码不正确

	// --- 资源未找到错误系列 (404xx) ---
	NotFoundCode      = 40400 // 通用资源未找到
	FileNotFoundCode  = 40402 // 文件不存在
	ShareNotFoundCode = 40404 // 分享链接不存在

	// --- 分享链接失效系列 (410xx) ---
	ShareExpiredCode   = 41001 // 分享链接已过期
	ShareExhaustedCode = 41002 // 分享下载次数已用完

	// --- 存储准入系列 (507xx) ---
	InsufficientStorageCode = 50700 // 磁盘空间不足

	// --- 服务器内部错误系列 (500xx) ---
	InternalServerErrorCode = 50000 // 服务器内部通用错误
	DatabaseErrorCode       = 50001 // 数据库操作失败
	StorageErrorCode        = 50002 // 磁盘读写失败
)
