package i18n

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// catalogs 按 locale 注册的消息目录；英文目录同时充当兜底
// catalogs maps locales to message catalogs; English doubles as the fallback
var catalogs = map[string]map[string]string{
	"en":    EnMessages,
	"zh-CN": ZhCNMessages,
}

// I18n 构造后只读的翻译表
// I18n is a translation table, read-only after construction
type I18n struct {
	locale   string
	messages map[string]string
}

var (
	global     *I18n
	globalOnce sync.Once
)

// Global 返回全局实例；未经 Init 时按环境探测构造
// Global returns the global instance, built from the environment when Init
// was never called
func Global() *I18n {
	globalOnce.Do(func() {
		if global == nil {
			global = New("")
		}
	})
	return global
}

// Init 用第一个非空候选初始化全局实例。候选按优先级传入：
// 命令行旗标在前，配置文件在后；全部为空时探测环境。
// Init initializes the global instance from the first non-empty candidate.
// Pass candidates in priority order, command-line flag before config file;
// the environment is probed when all are empty.
func Init(candidates ...string) {
	global = New(Pick(candidates...))
}

// T 全局翻译快捷函数 / Global translation shortcut
func T(key string, args ...any) string {
	return Global().T(key, args...)
}

// Pick 返回第一个可用的 locale 候选，否则探测环境
// Pick returns the first usable locale candidate, probing the environment
// otherwise
func Pick(candidates ...string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return normalizeLocale(c)
		}
	}
	return DetectLocale()
}

// New 构造实例：英文目录打底，命中的 locale 目录逐键覆盖
// New builds an instance: the English catalog underneath, the matched locale
// catalog overlaid key by key
func New(locale string) *I18n {
	locale = Pick(locale)
	messages := make(map[string]string, len(EnMessages))
	for k, v := range EnMessages {
		messages[k] = v
	}
	if overlay, ok := catalogs[locale]; ok && locale != "en" {
		for k, v := range overlay {
			messages[k] = v
		}
	}
	return &I18n{locale: locale, messages: messages}
}

// T 查键并格式化；未知键原样返回，缺失的翻译因此直接可见
// T looks up and formats; unknown keys come back verbatim, so a missing
// translation is immediately visible
func (i *I18n) T(key string, args ...any) string {
	tmpl, ok := i.messages[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// Locale 返回归一化后的 locale
// Locale returns the normalized locale
func (i *I18n) Locale() string {
	return i.locale
}

// DetectLocale 沿环境变量链探测 locale
// DetectLocale probes the environment variable chain
func DetectLocale() string {
	for _, env := range []string{"DANEYBIL_LANG", "LANG", "LC_ALL", "LC_MESSAGES"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return normalizeLocale(v)
		}
	}
	return "en"
}

// normalizeLocale 把 zh_CN.UTF-8 之类的形态折叠到目录键；没有对应目录的
// locale 一律落到英文
// normalizeLocale folds forms like zh_CN.UTF-8 onto catalog keys; locales
// without a catalog land on English
func normalizeLocale(s string) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), ".")
	s = strings.ToLower(strings.ReplaceAll(s, "_", "-"))
	if strings.HasPrefix(s, "zh") {
		return "zh-CN"
	}
	return "en"
}
