// Package locale maps the message keys carried by pipeline errors onto
// user-facing strings. The tables are thin glue: the command boundary looks
// a key up and formats any arguments into it.
package locale

import "fmt"

// DefaultLanguage is used when the requested language has no table or the
// table misses a key.
const DefaultLanguage = "en"

var tables = map[string]map[string]string{
	"en": {
		"expect-prompt":      "Please tell me what to draw.",
		"forbidden-word":     "Your prompt contains a forbidden word.",
		"concurrent-jobs":    "You already have a generation running. Please wait for it to finish.",
		"download-error":     "Failed to download the source image.",
		"backend-message":    "The backend reported an error: %s",
		"unauthorized":       "The backend rejected the request: quota exhausted or invalid credentials.",
		"backend-status":     "The backend returned an unexpected status (%d).",
		"request-timeout":    "The generation request timed out. Please try again.",
		"request-failed":     "Could not reach the generation backend.",
		"unknown-error":      "Something went wrong. Please try again.",
		"invalid-resolution": "Invalid resolution; expected WIDTHxHEIGHT, e.g. 512x768.",
		"invalid-option":     "Invalid value for option %s.",
		"pending":            "Request queued; %d requests pending.",
		"waiting":            "Painting, please wait a moment...",
	},
	"zh": {
		"expect-prompt":      "请输入要画的内容。",
		"forbidden-word":     "提示词包含违禁词。",
		"concurrent-jobs":    "你已有正在进行的绘图任务，请稍候。",
		"download-error":     "下载原始图片失败。",
		"backend-message":    "后端返回错误：%s",
		"unauthorized":       "后端拒绝了请求：额度不足或凭据无效。",
		"backend-status":     "后端返回了异常状态码（%d）。",
		"request-timeout":    "绘图请求超时，请重试。",
		"request-failed":     "无法连接绘图后端。",
		"unknown-error":      "发生未知错误，请重试。",
		"invalid-resolution": "分辨率格式错误，应为 宽x高，例如 512x768。",
		"invalid-option":     "选项 %s 的值无效。",
		"pending":            "已加入队列，前方还有 %d 个请求。",
		"waiting":            "正在绘制，请稍等……",
	},
}

// Text returns the formatted message for key in the given language, falling
// back to DefaultLanguage and finally to the bare key.
func Text(lang, key string, args ...interface{}) string {
	if table, ok := tables[lang]; ok {
		if msg, ok := table[key]; ok {
			return format(msg, args...)
		}
	}
	if msg, ok := tables[DefaultLanguage][key]; ok {
		return format(msg, args...)
	}
	return key
}

func format(msg string, args ...interface{}) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}
