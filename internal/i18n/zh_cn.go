package i18n

// ZhCNMessages 简体中文消息目录
// ZhCNMessages is the simplified Chinese message catalog
var ZhCNMessages = map[string]string{
	// UI - 状态栏
	"status.ready":      "就绪",
	"status.processing": "DANEYBIL 引擎同步中...",
	"status.strict":     "精确",
	"status.adaptive":   "自适应",
	"status.audio_on":   "朗读开",
	"status.audio_off":  "朗读关",
	"status.copy_on":    "自动复制开",
	"status.copy_off":   "自动复制关",
	"status.tokens":     "约 %d token",

	// UI - 确认栏
	"confirm.pending": "命令等待确认",
	"confirm.keys":    "y 确认 · n 取消",

	// UI - 输入
	"input.placeholder": "输入命令... (Shift+Enter 换行)",
	"input.attach_hint": "/attach <路径> 附加图片",

	// UI - 快捷键
	"keys.submit":  "enter 发送",
	"keys.strict":  "ctrl+s 精确模式",
	"keys.audio":   "ctrl+g 朗读",
	"keys.copy":    "ctrl+y 复制",
	"keys.newsess": "ctrl+n 新会话",
	"keys.quit":    "ctrl+c 退出",

	// 会话
	"sessions.header":    "会话（最近在前）",
	"sessions.empty":     "没有已保存的会话。",
	"sessions.switched":  "已切换到会话 %s",
	"sessions.created":   "已开启新会话 %s",
	"sessions.not_found": "找不到会话：%s",

	// 错误
	"error.busy":             "上一条命令仍在执行，请等待完成。",
	"error.empty":            "没有可发送的内容。",
	"error.credentials":      "需要凭证。设置有效的 API key 后执行 /key。",
	"error.not_awaiting":     "当前没有等待确认的命令。",
	"error.attach_not_found": "无法读取图片：%s",

	// 开关
	"toggle.strict_on":  "精确模式已启用。零偏差执行。",
	"toggle.strict_off": "自适应模式已启用。允许建议。",
	"toggle.audio_on":   "朗读已开启。",
	"toggle.audio_off":  "朗读已关闭。",
	"toggle.copy_on":    "自动复制已开启。",
	"toggle.copy_off":   "自动复制已关闭。",

	// 语音通话
	"live.started": "语音链路已建立，请下达命令。",
	"live.ended":   "语音链路已关闭。",

	// REPL
	"repl.bye":      "链路已断开。",
	"repl.attached": "已附加图片：%s",
	"repl.model":    "当前模型：%s",
}
