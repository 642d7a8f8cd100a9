package script

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/zurustar/scriptvm/pkg/asm"
	"github.com/zurustar/scriptvm/pkg/fileutil"
	"github.com/zurustar/scriptvm/pkg/logger"
	"github.com/zurustar/scriptvm/pkg/program"
)

// SourceExt is the extension of assembler source files.
const SourceExt = ".asm"

// Source はデコード済みのスクリプトソース
type Source struct {
	FileName string // ファイル名
	Content  string // UTF-8に変換された内容
	Size     int64  // 元のバイト数
}

// Loader はスクリプトソースを読み込み、プログラムにアセンブルする
type Loader struct {
	fs  fileutil.FileSystem
	enc encoding.Encoding
	log *slog.Logger
}

// LoaderOption is a functional option for configuring the Loader.
type LoaderOption func(*Loader)

// WithEncoding sets the source encoding. The default is windows-1252.
func WithEncoding(enc encoding.Encoding) LoaderOption {
	return func(l *Loader) {
		l.enc = enc
	}
}

// WithLoaderLogger sets the logger.
func WithLoaderLogger(log *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.log = log
	}
}

// NewLoader Loaderを作成
func NewLoader(fsys fileutil.FileSystem, opts ...LoaderOption) *Loader {
	l := &Loader{
		fs:  fsys,
		enc: charmap.Windows1252,
		log: logger.For("loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Charset は文字セット名からエンコーディングを返す
func Charset(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "windows-1252", "cp1252", "latin1":
		return charmap.Windows1252, nil
	case "shift-jis", "sjis", "cp932":
		return japanese.ShiftJIS, nil
	case "cp437", "ibm437":
		return charmap.CodePage437, nil
	case "utf-8", "utf8":
		return encoding.Nop, nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", name)
	}
}

// LoadAll すべてのソースファイルを読み込む
func (l *Loader) LoadAll() ([]Source, error) {
	files, err := l.findSourceFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to find script files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no script files found in %s", l.fs.BasePath())
	}

	var sources []Source
	for _, name := range files {
		src, err := l.Load(name)
		if err != nil {
			return nil, fmt.Errorf("failed to load script %s: %w", name, err)
		}
		sources = append(sources, *src)
	}
	return sources, nil
}

// findSourceFiles 拡張子を大文字小文字を無視して比較し、ソースファイルを検出
func (l *Loader) findSourceFiles() ([]string, error) {
	var files []string
	err := l.fs.WalkDir(".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(p), SourceExt) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Load 単一のソースファイルを読み込む
func (l *Loader) Load(name string) (*Source, error) {
	data, err := l.fs.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	content, err := decode(data, l.enc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert encoding: %w", err)
	}
	return &Source{
		FileName: filepath.Base(name),
		Content:  content,
		Size:     int64(len(data)),
	}, nil
}

// Compile reads and assembles name. The program is named after the file
// without its extension. All assembler errors are joined.
func (l *Loader) Compile(name string) (*program.Program, error) {
	src, err := l.Load(name)
	if err != nil {
		return nil, err
	}
	progName := strings.TrimSuffix(src.FileName, filepath.Ext(src.FileName))
	prog, errs := asm.Assemble(progName, src.Content)
	if len(errs) > 0 {
		for _, e := range errs {
			var ae *asm.AsmError
			if errors.As(e, &ae) {
				l.log.Error("Assembly error", "file", src.FileName, "line", ae.Line, "column", ae.Column, "message", ae.Message)
			}
		}
		return nil, fmt.Errorf("assemble %s: %w", src.FileName, errors.Join(errs...))
	}
	l.log.Debug("Script compiled", "file", src.FileName, "procs", len(prog.Procs), "bytes", len(prog.Code))
	return prog, nil
}

// decode はソースのバイト列をUTF-8に変換する
func decode(data []byte, enc encoding.Encoding) (string, error) {
	reader := transform.NewReader(strings.NewReader(string(data)), enc.NewDecoder())
	out, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode: %w", err)
	}
	return string(out), nil
}
