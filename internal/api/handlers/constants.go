package handlers

const (
	bytesPerMB = 1024 * 1024

	formFieldImage = "image"

	// Error messages shown to the browser client
	errNoMessage         = "No message provided"
	errNoTopic           = "请输入您想探讨的话题"
	errNoReply           = "请输入您的回应"
	errInternal          = "内部错误"
	errUnsupportedImage  = "不支持的图片格式，请上传 png、jpg、jpeg、gif、webp 或 bmp 文件"
	errImageTooLarge     = "图片过大"
	errImageUploadFailed = "图片上传失败"
)

// allowedImageExtensions lists the accepted upload extensions
var allowedImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}
