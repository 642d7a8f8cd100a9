package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	ConfigPath string        // セッション設定ファイル（scriptvm.toml）のパス
	ScriptDir  string        // スクリプトディレクトリ（設定ファイルの値を上書き）
	Timeout    time.Duration // タイムアウト時間（0は無制限）
	Ticks      int           // 実行するティック数（0は無制限）
	LogLevel   string        // ログレベル（debug, info, warn, error）。空なら設定ファイルに従う
	Headless   bool          // ヘッドレスモード
	LoadSlot   string        // 起動時に読み込むセーブスロット
	SaveOnExit bool          // 終了時にセーブする
	ShowHelp   bool          // ヘルプ表示フラグ
}

// boolFlags は値を取らないフラグ
var boolFlags = map[string]bool{
	"-h": true, "--h": true, "-help": true, "--help": true,
	"-headless": true, "--headless": true,
	"-save": true, "--save": true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("scriptvm", flag.ContinueOnError)

	config := &Config{}

	var timeoutSec int
	fs.StringVar(&config.ConfigPath, "config", "", "設定ファイルのパス")
	fs.StringVar(&config.ConfigPath, "c", "", "設定ファイルのパス（短縮形）")
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.IntVar(&config.Ticks, "ticks", 0, "実行するティック数")
	fs.IntVar(&config.Ticks, "n", 0, "実行するティック数（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "", "ログレベル（短縮形）")
	fs.BoolVar(&config.Headless, "headless", false, "ヘッドレスモード")
	fs.StringVar(&config.LoadSlot, "load", "", "起動時に読み込むセーブスロット")
	fs.BoolVar(&config.SaveOnExit, "save", false, "終了時にセーブ")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !config.Headless {
		if headlessEnv := os.Getenv("SCRIPTVM_HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}
	if config.Ticks == 0 {
		if ticksEnv := os.Getenv("SCRIPTVM_TICKS"); ticksEnv != "" {
			n, err := strconv.Atoi(ticksEnv)
			if err != nil {
				return nil, fmt.Errorf("invalid SCRIPTVM_TICKS: %w", err)
			}
			config.Ticks = n
		}
	}
	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("SCRIPTVM_TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}
	if config.LogLevel == "" {
		config.LogLevel = strings.ToLower(os.Getenv("SCRIPTVM_LOG_LEVEL"))
	}
	if config.ConfigPath == "" {
		config.ConfigPath = os.Getenv("SCRIPTVM_CONFIG")
	}

	// 検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second
	if config.Ticks < 0 {
		return nil, fmt.Errorf("ticks must be non-negative, got %d", config.Ticks)
	}

	validLogLevels := map[string]bool{
		"":      true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	// 位置引数（スクリプトディレクトリまたは設定ファイル）
	if fs.NArg() > 0 {
		path := fs.Arg(0)
		if strings.HasSuffix(strings.ToLower(path), ".toml") {
			config.ConfigPath = path
		} else {
			config.ScriptDir = path
		}
	}
	if fs.NArg() > 1 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args()[1:])
	}

	return config, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// -t 5 のような場合は次の引数も値として扱う
			if !strings.Contains(arg, "=") && !boolFlags[arg] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}

	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `scriptvm - script VM and action sequencer

Usage:
  scriptvm [options] [script-dir | config.toml]

Arguments:
  script-dir    スクリプト（.asm）を読み込むディレクトリ（設定ファイルの値を上書き）
  config.toml   セッション設定ファイル
                どちらも省略した場合は組み込みのデモを実行

Options:
  -c, --config <path>         設定ファイルのパス
  -t, --timeout <seconds>     指定秒数後にプログラムを終了（デフォルト: 無制限）
  -n, --ticks <count>         指定ティック数の実行後に終了（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: 設定ファイル、なければ info）
  --headless                  ヘッドレスモード（GUIなし）
  --load <slot>               起動時にセーブスロットを読み込む
  --save                      終了時に設定ファイルのスロットへセーブ
  -h, --help                  このヘルプを表示

Environment Variables:
  SCRIPTVM_HEADLESS=1         ヘッドレスモードを有効化
  SCRIPTVM_TICKS=<count>      実行するティック数
  SCRIPTVM_TIMEOUT=<seconds>  タイムアウト時間（秒）
  SCRIPTVM_LOG_LEVEL=<level>  ログレベル
  SCRIPTVM_CONFIG=<path>      設定ファイルのパス

Examples:
  scriptvm                                  組み込みデモをGUIで実行
  scriptvm --headless --ticks 100           組み込みデモを100ティックだけ実行
  scriptvm ./arroyo/scriptvm.toml           設定ファイルを指定
  scriptvm -c game.toml ./scripts           スクリプトディレクトリを上書き
  SCRIPTVM_HEADLESS=1 scriptvm --load quick セーブスロットから再開
`)
}
