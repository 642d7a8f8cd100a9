package window

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/zurustar/scriptvm/pkg/game"
	"github.com/zurustar/scriptvm/pkg/logger"
)

// ErrQuit is returned when the player quits from the headless dialog prompt.
var ErrQuit = errors.New("user cancelled")

// Headless configures RunHeadless.
type Headless struct {
	Ticks          int // 0 runs until ctx is done
	TicksPerSecond int // 0 runs ticks back to back
	MaxCatchUp     int // ticks run at most per wake-up when behind

	In  io.Reader // dialog picks, one option number per line
	Out io.Writer // message log and dialog transcript
}

// headlessRunner ヘッドレスモードの実行状態
type headlessRunner struct {
	state   *game.State
	opts    Headless
	scanner *bufio.Scanner
	printed uint64 // 出力済みのメッセージ行数
	ran     int
	log     *slog.Logger
}

// RunHeadless ヘッドレスモードでシミュレーションを実行する。
// 会話の選択肢は In から番号で受け付け、メッセージは Out に出力する。
// 実行したティック数を返す
func RunHeadless(ctx context.Context, state *game.State, opts Headless) (int, error) {
	if opts.In == nil {
		opts.In = strings.NewReader("")
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.MaxCatchUp <= 0 {
		opts.MaxCatchUp = 1
	}
	r := &headlessRunner{
		state:   state,
		opts:    opts,
		scanner: bufio.NewScanner(opts.In),
		log:     logger.For("headless"),
	}
	err := r.run(ctx)
	r.flush()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	return r.ran, err
}

func (r *headlessRunner) done() bool {
	return r.opts.Ticks > 0 && r.ran >= r.opts.Ticks
}

func (r *headlessRunner) run(ctx context.Context) error {
	var ticker *time.Ticker
	var period time.Duration
	if r.opts.TicksPerSecond > 0 {
		period = time.Second / time.Duration(r.opts.TicksPerSecond)
		ticker = time.NewTicker(period)
		defer ticker.Stop()
	}
	start, base := time.Now(), 0

	for !r.done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.flush()

		if r.dialogWaiting() {
			if err := r.prompt(); err != nil {
				return err
			}
			// 入力待ちの間は時計を進めない
			start, base = time.Now(), r.ran
			continue
		}

		n := 1
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case now := <-ticker.C:
				n = int(now.Sub(start)/period) - (r.ran - base)
			}
			if n > r.opts.MaxCatchUp {
				r.log.Warn("Falling behind, dropping ticks", "behind", n, "max", r.opts.MaxCatchUp)
				base += n - r.opts.MaxCatchUp
				n = r.opts.MaxCatchUp
			}
		}
		for i := 0; i < n && !r.done(); i++ {
			r.state.Update()
			r.ran++
			if r.dialogWaiting() {
				break
			}
		}
	}
	return nil
}

func (r *headlessRunner) dialogWaiting() bool {
	d := r.state.Dialog()
	return d.Active() && !d.IsEmpty()
}

// flush 新しいメッセージを出力する
func (r *headlessRunner) flush() {
	ml := r.state.MessageLog()
	fresh := ml.Total() - r.printed
	if fresh == 0 {
		return
	}
	lines := ml.Lines(0)
	if fresh < uint64(len(lines)) {
		lines = lines[len(lines)-int(fresh):]
	}
	for _, line := range lines {
		fmt.Fprintln(r.opts.Out, line)
	}
	r.printed = ml.Total()
}

// prompt 会話の選択肢を表示して選択を受け付ける
func (r *headlessRunner) prompt() error {
	d := r.state.Dialog()
	if obj, ok := r.state.World().Get(d.Speaker()); ok {
		fmt.Fprintf(r.opts.Out, "%s: %s\n", obj.Name, d.Reply())
	} else {
		fmt.Fprintln(r.opts.Out, d.Reply())
	}
	options := d.Options()
	for i, opt := range options {
		fmt.Fprintf(r.opts.Out, "  %d: %s\n", i+1, opt.Text)
	}

	for {
		fmt.Fprint(r.opts.Out, "Select an option (1-", len(options), ") or 'q' to quit: ")
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			return fmt.Errorf("input closed")
		}

		input := strings.TrimSpace(r.scanner.Text())
		if input == "q" || input == "Q" {
			return ErrQuit
		}

		num, err := strconv.Atoi(input)
		if err != nil {
			fmt.Fprintln(r.opts.Out, "Invalid input. Please enter a number.")
			continue
		}
		if num < 1 || num > len(options) {
			fmt.Fprintf(r.opts.Out, "Invalid selection. Please enter a number between 1 and %d.\n", len(options))
			continue
		}

		fmt.Fprintf(r.opts.Out, "> %s\n", options[num-1].Text)
		return r.state.Pick(num - 1)
	}
}
