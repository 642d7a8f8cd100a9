package window

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"github.com/zurustar/scriptvm/pkg/game"
	"github.com/zurustar/scriptvm/pkg/logger"
	"github.com/zurustar/scriptvm/pkg/sequence"
	"github.com/zurustar/scriptvm/pkg/world"
)

var (
	// 背景色 #0087C8
	backgroundColor = color.RGBA{0x00, 0x87, 0xC8, 0xFF}
	// テキスト色（白）
	textColor = color.White
	// 主人公の色（黄色）
	dudeColor = color.RGBA{0xFF, 0xFF, 0x00, 0xFF}
	// 浮遊メッセージの色
	floatColor = color.RGBA{0xFF, 0xC0, 0x40, 0xFF}
	// デフォルトフォント
	defaultFace = text.NewGoXFace(basicfont.Face7x13)
)

const (
	screenWidth  = 1024
	screenHeight = 768
	logLines     = 8
)

// digitKeys は会話の選択肢に対応するキー
var digitKeys = []ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
	ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

// Game はEbitengineのゲームインターフェースを実装する。
// Update 1回がシミュレーションの1ティックに相当する
type Game struct {
	state     *game.State
	timeout   time.Duration // タイムアウト時間
	startTime time.Time     // 開始時刻
	maxTicks  int           // 実行するティック数（0は無制限）
	ticks     int           // 実行済みティック数
	view      viewport

	log *slog.Logger
}

// NewGame Gameを作成
func NewGame(state *game.State, timeout time.Duration, maxTicks int) *Game {
	return &Game{
		state:     state,
		timeout:   timeout,
		startTime: time.Now(),
		maxTicks:  maxTicks,
		log:       logger.For("window"),
	}
}

// Ticks returns how many ticks the game ran.
func (g *Game) Ticks() int { return g.ticks }

// Update ゲームロジックの更新（Ebitengineが毎フレーム呼び出す）
func (g *Game) Update() error {
	// タイムアウトチェック
	if g.timeout > 0 && time.Since(g.startTime) >= g.timeout {
		return ebiten.Termination
	}
	if g.maxTicks > 0 && g.ticks >= g.maxTicks {
		return ebiten.Termination
	}

	// Escキーで終了（1回だけ反応）
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	g.processKeyboardEvents()
	g.processMouseEvents()

	g.state.Update()
	g.ticks++
	return nil
}

// processKeyboardEvents はキー入力をプレイヤーの操作に変換する
func (g *Game) processKeyboardEvents() {
	if inpututil.IsKeyJustPressed(ebiten.KeyP) || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.state.TogglePause()
	}

	// 会話中は数字キーで選択肢を選ぶ
	if g.dialogWaiting() {
		for i, key := range digitKeys {
			if inpututil.IsKeyJustPressed(key) {
				if err := g.state.Pick(i); err != nil {
					g.log.Warn("Pick failed", "option", i+1, "error", err)
				}
				break
			}
		}
		return
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.state.Rotate(g.state.World().Dude())
	}
}

// processMouseEvents はクリックを歩行・会話・調査に変換する
func (g *Game) processMouseEvents() {
	if g.dialogWaiting() {
		return
	}
	left := inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
	right := inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight)
	if !left && !right {
		return
	}

	tile := g.view.screenToTile(ebiten.CursorPosition())
	if tile < 0 {
		return
	}
	target, found := g.objectAt(tile)

	var err error
	switch {
	case right && found:
		err = g.state.Look(target)
	case left && found:
		_, err = g.state.DefaultAction(target)
	case left:
		_, err = g.state.Walk(tile, ebiten.IsKeyPressed(ebiten.KeyShift))
	}
	if err != nil && !errors.Is(err, game.ErrDialogPending) {
		g.log.Error("Action failed", "tile", tile, "error", err)
	}
}

// objectAt returns the first object on tile at the dude's elevation.
func (g *Game) objectAt(tile int) (world.Handle, bool) {
	w := g.state.World()
	elevation := 0
	if dude, ok := w.Get(w.Dude()); ok {
		elevation = dude.Elevation
	}
	hs := w.ObjectsAt(tile, elevation)
	if len(hs) == 0 {
		return 0, false
	}
	return hs[0], true
}

// dialogWaiting reports whether a script waits for the player to pick an option.
func (g *Game) dialogWaiting() bool {
	d := g.state.Dialog()
	return d.Active() && !d.IsEmpty()
}

// Draw 画面描画（Ebitengineが毎フレーム呼び出す）
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	w := g.state.World()
	if dude, ok := w.Get(w.Dude()); ok {
		g.view = viewportAround(dude.Tile)
	}

	g.drawObjects(screen)
	g.drawFloating(screen)
	g.drawDialog(screen)
	g.drawLog(screen)
	g.drawStatus(screen)
}

// drawObjects オブジェクトを名前の頭文字で描画
func (g *Game) drawObjects(screen *ebiten.Image) {
	w := g.state.World()
	for _, h := range w.Handles() {
		obj, _ := w.Get(h)
		if !obj.Visible {
			continue
		}
		x, y := g.view.tileToScreen(obj.Tile)
		if x < 0 || y < 0 || x >= screenWidth || y >= screenHeight {
			continue
		}
		glyph, c := "?", color.Color(textColor)
		if obj.Name != "" {
			glyph = string([]rune(obj.Name)[:1])
		}
		if h == w.Dude() {
			glyph, c = "@", dudeColor
		}
		drawText(screen, glyph, x, y, c)
	}
}

// drawFloating オブジェクトの上に浮遊メッセージを描画
func (g *Game) drawFloating(screen *ebiten.Image) {
	w := g.state.World()
	for _, f := range g.state.MessageLog().Floating() {
		obj, ok := w.Get(f.Object)
		if !ok {
			continue
		}
		x, y := g.view.tileToScreen(obj.Tile)
		drawText(screen, f.Text, x, y-cellHeight, floatColor)
	}
}

// drawDialog 会話ウィンドウを描画
func (g *Game) drawDialog(screen *ebiten.Image) {
	d := g.state.Dialog()
	if !d.Active() {
		return
	}
	y := 40.0
	if obj, ok := g.state.World().Get(d.Speaker()); ok {
		drawText(screen, obj.Name+":", 40, y, dudeColor)
		y += 20
	}
	drawText(screen, d.Reply(), 40, y, textColor)
	y += 30
	for i, opt := range d.Options() {
		drawText(screen, fmt.Sprintf("%d. %s", i+1, opt.Text), 60, y, textColor)
		y += 20
	}
}

// drawLog メッセージログの末尾を描画
func (g *Game) drawLog(screen *ebiten.Image) {
	lines := g.state.MessageLog().Lines(logLines)
	y := float64(screenHeight - 20*(len(lines)+1))
	for _, line := range lines {
		drawText(screen, line, 20, y, textColor)
		y += 20
	}
}

// drawStatus ティック数と一時停止状態を描画
func (g *Game) drawStatus(screen *ebiten.Image) {
	status := fmt.Sprintf("tick %d  time %d", g.state.Time().Tick(), g.state.World().GameTime)
	if g.state.UserPaused() {
		status += "  [PAUSED]"
	}
	if g.state.Lag() == sequence.Lagging {
		status += "  [LAG]"
	}
	drawText(screen, status, 20, 10, textColor)
}

func drawText(screen *ebiten.Image, s string, x, y float64, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(c)
	text.Draw(screen, s, defaultFace, op)
}

// Layout 画面サイズを返す
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// Run GUIモードでウィンドウを実行
func Run(g *Game, ticksPerSecond int) error {
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("scriptvm")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if ticksPerSecond > 0 {
		ebiten.SetTPS(ticksPerSecond)
	}

	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("failed to run game: %w", err)
	}
	return nil
}
