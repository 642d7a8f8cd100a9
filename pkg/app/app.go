package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/zurustar/scriptvm/pkg/cli"
	"github.com/zurustar/scriptvm/pkg/config"
	"github.com/zurustar/scriptvm/pkg/dialog"
	"github.com/zurustar/scriptvm/pkg/fileutil"
	"github.com/zurustar/scriptvm/pkg/game"
	"github.com/zurustar/scriptvm/pkg/logger"
	"github.com/zurustar/scriptvm/pkg/program"
	"github.com/zurustar/scriptvm/pkg/savestate"
	"github.com/zurustar/scriptvm/pkg/script"
	"github.com/zurustar/scriptvm/pkg/vm"
	"github.com/zurustar/scriptvm/pkg/window"
	"github.com/zurustar/scriptvm/pkg/world"
)

// Paths of the built-in demo inside the embedded filesystem.
const (
	DemoDir    = "demo"
	demoConfig = DemoDir + "/scriptvm.toml"
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	args    *cli.Config
	config  *config.Config
	log     *slog.Logger
	embedFS fs.FS // 組み込みデモ（nilなら無効）
	loader  *script.Loader
	state   *game.State

	programs map[string]*program.Program // コンパイル済みプログラム（ファイル名ごと）

	stdin  io.Reader
	stdout io.Writer
}

// New Applicationを作成
func New(embedFS fs.FS) *Application {
	return &Application{
		embedFS:  embedFS,
		programs: make(map[string]*program.Program),
		stdin:    os.Stdin,
		stdout:   os.Stdout,
	}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	parsed, err := cli.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}
	app.args = parsed

	if app.args.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. 設定ファイルの読み込み
	if err := app.loadConfig(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 3. ロガーの初期化（コマンドラインのログレベルが優先）
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Info("Application started", "map", app.config.Map.Name, "scripts", app.config.ScriptDir())

	// 4. スクリプトローダーの準備
	if err := app.initLoader(); err != nil {
		return fmt.Errorf("failed to initialize script loader: %w", err)
	}

	// 5. マップの構築
	if err := app.buildState(); err != nil {
		return fmt.Errorf("failed to build map: %w", err)
	}

	// 6. セーブスロットからの復元
	if app.args.LoadSlot != "" {
		if err := app.restore(app.args.LoadSlot); err != nil {
			return fmt.Errorf("failed to load save: %w", err)
		}
	}

	// 7. マップに入る
	app.state.EnterMap()

	// 8. 実行
	if err := app.run(); err != nil {
		return fmt.Errorf("failed to run: %w", err)
	}

	// 9. 終了時のセーブ
	if app.args.SaveOnExit {
		if err := app.save(app.config.Save.Slot); err != nil {
			return fmt.Errorf("failed to save: %w", err)
		}
	}

	app.log.Info("Application terminated normally", "ticks", app.state.Time().Tick())
	return nil
}

// loadConfig 設定ファイルを読み込む。指定がなければ組み込みデモを使う
func (app *Application) loadConfig() error {
	var cfg *config.Config
	var err error
	switch {
	case app.args.ConfigPath != "":
		cfg, err = config.Load(app.args.ConfigPath)
	case app.args.ScriptDir != "" || app.embedFS == nil:
		cfg = config.Default()
	default:
		var data []byte
		data, err = fs.ReadFile(app.embedFS, demoConfig)
		if err != nil {
			return fmt.Errorf("reading embedded demo: %w", err)
		}
		cfg, err = config.Parse(data)
	}
	if err != nil {
		return err
	}
	if app.args.ScriptDir != "" {
		cfg.Scripts.Dir = app.args.ScriptDir
	}
	app.config = cfg
	return nil
}

// useEmbedded reports whether scripts come from the embedded demo.
func (app *Application) useEmbedded() bool {
	return app.args.ConfigPath == "" && app.args.ScriptDir == "" && app.embedFS != nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	level := app.config.Log.Level
	if app.args.LogLevel != "" {
		level = app.args.LogLevel
	}
	if err := logger.InitLoggerTo(os.Stderr, level, app.config.Log.Format); err != nil {
		return err
	}
	app.log = logger.For("app")
	return nil
}

// initLoader スクリプトの読み込み元と文字セットを決める
func (app *Application) initLoader() error {
	enc, err := script.Charset(app.config.Scripts.Charset)
	if err != nil {
		return err
	}
	var fsys fileutil.FileSystem
	if app.useEmbedded() {
		fsys = fileutil.NewEmbedFS(app.embedFS, DemoDir+"/"+app.config.Scripts.Dir)
	} else {
		fsys = fileutil.NewRealFS(app.config.ScriptDir())
	}
	app.loader = script.NewLoader(fsys, script.WithEncoding(enc))

	sources, err := app.loader.LoadAll()
	if err != nil {
		return err
	}
	app.log.Info("Scripts found", "count", len(sources))
	for _, s := range sources {
		app.log.Debug("Script file", "name", s.FileName, "size", s.Size)
	}
	return nil
}

// compile はファイルをアセンブルする。同じファイルは一度だけアセンブルする
func (app *Application) compile(name string) (*program.Program, error) {
	if prog, ok := app.programs[name]; ok {
		return prog, nil
	}
	prog, err := app.loader.Compile(name)
	if err != nil {
		return nil, err
	}
	app.log.Debug("Script compiled", "file", name, "procs", len(prog.Procs), "bytes", len(prog.Code))
	app.programs[name] = prog
	return prog, nil
}

// buildState ワールド、スクリプト、メッセージを設定からまとめる
func (app *Application) buildState() error {
	cfg := app.config

	machine := vm.New(
		vm.WithLogger(logger.For("vm")),
		vm.WithStrictOpcodes(cfg.Engine.StrictOpcodes),
		vm.WithStepLimit(cfg.Engine.StepLimit),
		vm.WithMaxFrames(cfg.Engine.MaxFrames),
	)
	scripts := script.New(
		script.WithVM(machine),
		script.WithVarCounts(cfg.Map.MapVars, cfg.Map.GlobalVars),
	)
	for i, v := range cfg.Map.Globals {
		if err := scripts.Vars().Global.Set(i, vm.Int(v)); err != nil {
			return err
		}
	}

	messages := dialog.Messages{}
	for _, m := range cfg.Messages {
		messages.Set(m.List, m.Num, m.Text)
	}

	opts := []game.Option{
		game.WithScripts(scripts),
		game.WithMessages(messages),
		game.WithMapID(cfg.Map.ID),
	}
	if cfg.Engine.Seed != 0 {
		opts = append(opts, game.WithSeed(uint64(cfg.Engine.Seed)))
	}
	app.state = game.New(opts...)

	if cfg.Map.Script != "" {
		prog, err := app.compile(cfg.Map.Script)
		if err != nil {
			return err
		}
		if err := app.state.LoadMapScript(prog); err != nil {
			return err
		}
	}

	for _, entry := range cfg.Catalog {
		prog, err := app.compile(entry.File)
		if err != nil {
			return err
		}
		kind, err := script.ParseKind(entry.Kind)
		if err != nil {
			return err
		}
		app.state.AddToCatalog(entry.Number, prog, kind)
	}

	for _, o := range cfg.Objects {
		if err := app.placeObject(o); err != nil {
			return fmt.Errorf("object %q: %w", o.Name, err)
		}
	}
	return nil
}

// placeObject 設定のオブジェクトをワールドに置き、スクリプトを付ける
func (app *Application) placeObject(o config.Object) error {
	stats := make(map[world.Stat]int32, len(o.Stats))
	for name, v := range o.Stats {
		s, err := config.ParseStat(name)
		if err != nil {
			return err
		}
		stats[s] = v
	}
	w := app.state.World()
	h := w.Insert(world.Object{
		Name:      o.Name,
		PID:       o.PID,
		Tile:      o.Tile,
		Elevation: o.Elevation,
		Visible:   true,
		Stats:     stats,
	})
	if o.Dude {
		w.SetDude(h)
	}
	if o.Script == "" {
		return nil
	}

	prog, err := app.compile(o.Script)
	if err != nil {
		return err
	}
	kind, err := script.ParseKind(o.Kind)
	if err != nil {
		return err
	}
	sid, err := app.state.AttachScript(h, prog, kind)
	if err != nil {
		return err
	}
	app.log.Debug("Object placed", "name", o.Name, "handle", h, "sid", sid)
	return nil
}

// run ヘッドレスモードまたはGUIモードでシミュレーションを実行
func (app *Application) run() error {
	cfg := app.config.Engine
	if !app.args.Headless {
		return window.Run(window.NewGame(app.state, app.args.Timeout, app.args.Ticks), cfg.TicksPerSecond)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if app.args.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.args.Timeout)
		defer cancel()
	}

	start := time.Now()
	ran, err := window.RunHeadless(ctx, app.state, window.Headless{
		Ticks:          app.args.Ticks,
		TicksPerSecond: cfg.TicksPerSecond,
		MaxCatchUp:     cfg.MaxCatchUp,
		In:             app.stdin,
		Out:            app.stdout,
	})
	app.log.Info("Headless run finished", "ticks", ran, "elapsed", time.Since(start))
	if errors.Is(err, window.ErrQuit) {
		return nil
	}
	return err
}

// openStore セーブデータベースを開く
func (app *Application) openStore() (*savestate.Store, error) {
	return savestate.Open(app.config.SavePath())
}

// restore はスロットの変数を読み込む。マップに入る前に呼ぶ
func (app *Application) restore(slot string) error {
	store, err := app.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Load(context.Background(), slot)
	if err != nil {
		return err
	}
	if !snap.Restore(app.config.Map.ID, app.state.Scripts().Vars()) {
		app.log.Warn("Save slot belongs to another map, map vars not restored", "slot", slot, "saved", snap.MapID, "current", app.config.Map.ID)
	}
	app.log.Info("Save loaded", "slot", slot)
	return nil
}

// save は現在の変数をスロットに書き込む
func (app *Application) save(slot string) error {
	store, err := app.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	snap := savestate.Capture(app.config.Map.ID, app.state.Scripts().Vars())
	return store.Save(context.Background(), slot, snap)
}
