package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ProviderConfig 远端补全后端配置
// ProviderConfig configures the remote completion backend
type ProviderConfig struct {
	// Kind 可选 gemini | openai / Kind selects gemini | openai
	Kind      string   `json:"kind"`
	BaseURL   string   `json:"base_url"`
	Model     string   `json:"model"`
	Models    []string `json:"models"`
	APIKey    string   `json:"api_key"`
	TimeoutMS int      `json:"timeout_ms"`
}

// SpeechConfig 朗读与语音通话配置
// SpeechConfig configures narration and the live voice call
type SpeechConfig struct {
	TTSModel  string `json:"tts_model"`
	Voice     string `json:"voice"`
	LiveModel string `json:"live_model"`
	LiveVoice string `json:"live_voice"`
}

// StorageConfig 持久化配置
// StorageConfig configures persistence
type StorageConfig struct {
	BaseDir string `json:"base_dir"`
}

// UIConfig 界面配置
// UIConfig configures the interface
type UIConfig struct {
	Locale string `json:"locale"`
	// LineMode 为 true 时使用 readline 行模式而不是 TUI
	// LineMode true selects the readline line mode instead of the TUI
	LineMode bool `json:"line_mode"`
}

// Config 文件配置
// Config is the file-backed configuration
type Config struct {
	Provider ProviderConfig `json:"provider"`
	Speech   SpeechConfig   `json:"speech"`
	Storage  StorageConfig  `json:"storage"`
	UI       UIConfig       `json:"ui"`
	System   SystemDefaults `json:"system"`
}

// SystemDefaults 系统开关的启动默认值
// SystemDefaults are the startup defaults of the runtime switches
type SystemDefaults struct {
	StrictMode         bool `json:"strict_mode"`
	AudioOutputEnabled bool `json:"audio_output_enabled"`
	AutoCopyEnabled    bool `json:"auto_copy_enabled"`
}

// System 进程级可变系统配置；只在进程生命周期内存在
// System holds the process-wide mutable configuration; process lifetime only
type System struct {
	mu                 sync.RWMutex
	strictMode         bool
	audioOutputEnabled bool
	autoCopyEnabled    bool
}

// NewSystem 按启动默认值创建系统配置
// NewSystem creates the runtime configuration from startup defaults
func NewSystem(d SystemDefaults) *System {
	return &System{
		strictMode:         d.StrictMode,
		audioOutputEnabled: d.AudioOutputEnabled,
		autoCopyEnabled:    d.AutoCopyEnabled,
	}
}

// StrictMode 当前精确模式开关
// StrictMode returns the current strict-mode switch
func (s *System) StrictMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.strictMode
}

// SetStrictMode 切换精确模式
// SetStrictMode toggles strict mode
func (s *System) SetStrictMode(v bool) {
	s.mu.Lock()
	s.strictMode = v
	s.mu.Unlock()
}

// AudioOutputEnabled 朗读副作用开关
// AudioOutputEnabled gates the narration side effect
func (s *System) AudioOutputEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.audioOutputEnabled
}

// SetAudioOutputEnabled 切换朗读
// SetAudioOutputEnabled toggles narration
func (s *System) SetAudioOutputEnabled(v bool) {
	s.mu.Lock()
	s.audioOutputEnabled = v
	s.mu.Unlock()
}

// AutoCopyEnabled 剪贴板副作用开关
// AutoCopyEnabled gates the clipboard side effect
func (s *System) AutoCopyEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoCopyEnabled
}

// SetAutoCopyEnabled 切换自动复制
// SetAutoCopyEnabled toggles auto copy
func (s *System) SetAutoCopyEnabled(v bool) {
	s.mu.Lock()
	s.autoCopyEnabled = v
	s.mu.Unlock()
}

type fileSystemDefaults struct {
	StrictMode         *bool `json:"strict_mode"`
	AudioOutputEnabled *bool `json:"audio_output_enabled"`
	AutoCopyEnabled    *bool `json:"auto_copy_enabled"`
}

type fileConfig struct {
	Provider *ProviderConfig     `json:"provider"`
	Speech   *SpeechConfig       `json:"speech"`
	Storage  *StorageConfig      `json:"storage"`
	UI       *UIConfig           `json:"ui"`
	System   *fileSystemDefaults `json:"system"`
}

// Default 内置默认配置
// Default returns the built-in defaults
func Default() Config {
	home, _ := os.UserHomeDir()
	baseDir := filepath.Join(home, ".daneybil")
	return Config{
		Provider: ProviderConfig{
			Kind:      "gemini",
			Model:     "gemini-3-pro-preview",
			Models:    []string{"gemini-3-pro-preview"},
			TimeoutMS: 120000,
		},
		Speech: SpeechConfig{
			TTSModel:  "gemini-2.5-flash-preview-tts",
			Voice:     "Charon",
			LiveModel: "gemini-2.5-flash-native-audio-preview-12-2025",
			LiveVoice: "Zephyr",
		},
		Storage: StorageConfig{
			BaseDir: baseDir,
		},
		System: SystemDefaults{
			StrictMode:         true,
			AudioOutputEnabled: false,
			AutoCopyEnabled:    false,
		},
	}
}

// Load 读取配置文件并叠加到默认值；路径为空时探测默认位置
// Load reads the config file and overlays it on the defaults; an empty path
// probes the default location
func Load(path string) (Config, error) {
	cfg := Default()

	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join(cfg.Storage.BaseDir, "config.json")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	merge(&cfg, fc)
	applyEnv(&cfg)
	return cfg, nil
}

func merge(cfg *Config, fc fileConfig) {
	if fc.Provider != nil {
		overlayString(&cfg.Provider.Kind, fc.Provider.Kind)
		overlayString(&cfg.Provider.BaseURL, fc.Provider.BaseURL)
		overlayString(&cfg.Provider.Model, fc.Provider.Model)
		overlayString(&cfg.Provider.APIKey, fc.Provider.APIKey)
		if len(fc.Provider.Models) > 0 {
			cfg.Provider.Models = append([]string(nil), fc.Provider.Models...)
		}
		if fc.Provider.TimeoutMS > 0 {
			cfg.Provider.TimeoutMS = fc.Provider.TimeoutMS
		}
	}
	if fc.Speech != nil {
		overlayString(&cfg.Speech.TTSModel, fc.Speech.TTSModel)
		overlayString(&cfg.Speech.Voice, fc.Speech.Voice)
		overlayString(&cfg.Speech.LiveModel, fc.Speech.LiveModel)
		overlayString(&cfg.Speech.LiveVoice, fc.Speech.LiveVoice)
	}
	if fc.Storage != nil {
		overlayString(&cfg.Storage.BaseDir, fc.Storage.BaseDir)
	}
	if fc.UI != nil {
		overlayString(&cfg.UI.Locale, fc.UI.Locale)
		cfg.UI.LineMode = fc.UI.LineMode
	}
	if fc.System != nil {
		if fc.System.StrictMode != nil {
			cfg.System.StrictMode = *fc.System.StrictMode
		}
		if fc.System.AudioOutputEnabled != nil {
			cfg.System.AudioOutputEnabled = *fc.System.AudioOutputEnabled
		}
		if fc.System.AutoCopyEnabled != nil {
			cfg.System.AutoCopyEnabled = *fc.System.AutoCopyEnabled
		}
	}
}

// applyEnv 环境变量覆盖 API key；配置文件里留空是常态
// applyEnv overlays API keys from the environment; leaving them out of the
// config file is the normal case
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); v != "" && cfg.Provider.Kind == "gemini" {
		cfg.Provider.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" && cfg.Provider.Kind == "openai" {
		cfg.Provider.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("DANEYBIL_API_KEY")); v != "" {
		cfg.Provider.APIKey = v
	}
}

func overlayString(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = v
	}
}
