package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"daneybil/internal/config"
	"daneybil/internal/dispatcher"
	"daneybil/internal/i18n"
	"daneybil/internal/provider"
	"daneybil/internal/repl"
	"daneybil/internal/speech"
	"daneybil/internal/storage"
	"daneybil/internal/tui"
)

func main() {
	var (
		configPath string
		lineMode   bool
		locale     string
	)
	flag.StringVar(&configPath, "config", "", "Path to config JSON")
	flag.BoolVar(&lineMode, "line", false, "Run the readline line mode instead of the TUI")
	flag.StringVar(&locale, "locale", "", "UI locale override (en, zh-CN)")
	flag.Parse()

	// .env 是放 API key 的惯常位置；缺失不算错误
	// .env is the customary API key location; absence is not an error
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	// 旗标优先于配置文件 / The flag takes priority over the config file
	i18n.Init(locale, cfg.UI.Locale)

	store, err := storage.NewSQLiteStore(filepath.Join(cfg.Storage.BaseDir, "sessions.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init storage failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	restored, err := store.LoadAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "restore sessions failed: %v\n", err)
		os.Exit(1)
	}

	sys := config.NewSystem(cfg.System)

	prov, gemini, err := buildProvider(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init provider failed: %v\n", err)
		os.Exit(1)
	}

	d := dispatcher.New(prov, sys, store, restored)

	// 朗读和语音通话只在 gemini 后端可用
	// Narration and the voice call are only available on the gemini backend
	var liveStarter repl.LiveStarter
	if gemini != nil {
		sink := &speech.WAVDirSink{Dir: filepath.Join(cfg.Storage.BaseDir, "narration")}
		d.SetNarrator(speech.NewNarrator(gemini.Client(), cfg.Speech.TTSModel, cfg.Speech.Voice, sink))
		liveStarter = newLiveStarter(gemini, cfg.Speech, sink)
	}

	if lineMode || cfg.UI.LineMode {
		loop, err := repl.NewLoop(d, prov, sys, os.Stdout, cfg.Storage.BaseDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "line editor unavailable, fallback to basic input: %v\n", err)
		}
		if liveStarter != nil {
			loop.SetLiveStarter(liveStarter)
		}
		if err := loop.Run(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "repl failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := tui.Run(d, prov, sys); err != nil {
		fmt.Fprintf(os.Stderr, "tui failed: %v\n", err)
		os.Exit(1)
	}
}

// buildProvider 按配置选择后端；gemini 后端额外返回具体类型供语音子系统复用
// buildProvider selects the backend; the gemini backend is also returned
// concretely so the speech subsystem can reuse its client
func buildProvider(cfg config.Config) (provider.Provider, *provider.GeminiProvider, error) {
	switch cfg.Provider.Kind {
	case "openai":
		p := provider.NewOpenAIProvider(provider.OpenAIConfig{
			BaseURL:   cfg.Provider.BaseURL,
			APIKey:    cfg.Provider.APIKey,
			Model:     cfg.Provider.Model,
			TimeoutMS: cfg.Provider.TimeoutMS,
		})
		return p, nil, nil
	case "gemini", "":
		p, err := provider.NewGeminiProvider(context.Background(), provider.GeminiConfig{
			APIKey:    cfg.Provider.APIKey,
			Model:     cfg.Provider.Model,
			TimeoutMS: cfg.Provider.TimeoutMS,
		})
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider kind %q", cfg.Provider.Kind)
	}
}

// newLiveStarter 建立语音通话并把入站帧排进回放接收器，直到通话结束
// newLiveStarter opens the voice call and drains inbound frames into the
// playback sink until the call ends
func newLiveStarter(gemini *provider.GeminiProvider, cfg config.SpeechConfig, sink speech.Sink) repl.LiveStarter {
	return func(ctx context.Context) error {
		call := speech.NewCall(gemini.Client(), speech.CallConfig{
			Model: cfg.LiveModel,
			Voice: cfg.LiveVoice,
		})
		if err := call.Start(ctx); err != nil {
			return err
		}
		defer call.Close()

		for {
			select {
			case frame := <-call.Frames():
				if err := sink.Play(ctx, frame.Data, speech.LiveOutputSampleRate); err != nil {
					return err
				}
			case <-call.Interrupts():
				// 已排期未播放的帧已被丢弃；继续收取新的回合
				// Scheduled-unplayed frames are already discarded; keep receiving
			case <-call.Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
