// Package fileutil gives the script loader one view over a directory on disk and
// the sources embedded in the binary. Lookups ignore case.
package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSystem は実ファイルシステムと埋め込みファイルシステムを統一的に扱うインターフェース
type FileSystem interface {
	// ReadFile はファイルの内容を読み込む（大文字小文字を無視）
	ReadFile(name string) ([]byte, error)
	// WalkDir はベースパスからの相対パスでディレクトリを走査する
	WalkDir(root string, fn fs.WalkDirFunc) error
	// BasePath はベースパスを返す
	BasePath() string
}

// RealFS は実ファイルシステムへのアクセスを提供する
type RealFS struct {
	basePath string
}

// NewRealFS は実ファイルシステム用のFileSystemを作成する
func NewRealFS(basePath string) *RealFS {
	return &RealFS{basePath: basePath}
}

func (r *RealFS) ReadFile(name string) ([]byte, error) {
	p := filepath.Join(r.basePath, trimRoot(name))
	if _, err := os.Stat(p); err != nil {
		found, ferr := findCaseInsensitive(os.DirFS(filepath.Dir(p)), ".", filepath.Base(p))
		if ferr != nil {
			return nil, err
		}
		p = filepath.Join(filepath.Dir(p), found)
	}
	return os.ReadFile(p)
}

func (r *RealFS) WalkDir(root string, fn fs.WalkDirFunc) error {
	start := filepath.Join(r.basePath, trimRoot(root))
	if start == "" {
		start = "."
	}
	return filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if rel, relErr := filepath.Rel(r.basePath, p); relErr == nil {
			p = rel
		}
		return fn(p, d, err)
	})
}

func (r *RealFS) BasePath() string { return r.basePath }

// EmbedFS は埋め込みファイルシステム（embed.FS など）へのアクセスを提供する
type EmbedFS struct {
	fsys     fs.FS
	basePath string
}

// NewEmbedFS は埋め込みファイルシステム用のFileSystemを作成する
func NewEmbedFS(fsys fs.FS, basePath string) *EmbedFS {
	return &EmbedFS{fsys: fsys, basePath: basePath}
}

func (e *EmbedFS) resolve(name string) string {
	name = strings.ReplaceAll(trimRoot(name), "\\", "/")
	if e.basePath == "" {
		if name == "" {
			return "."
		}
		return path.Clean(name)
	}
	return path.Join(e.basePath, name)
}

func (e *EmbedFS) ReadFile(name string) ([]byte, error) {
	p := e.resolve(name)
	data, err := fs.ReadFile(e.fsys, p)
	if err == nil {
		return data, nil
	}
	found, ferr := findCaseInsensitive(e.fsys, path.Dir(p), path.Base(p))
	if ferr != nil {
		return nil, err
	}
	return fs.ReadFile(e.fsys, path.Join(path.Dir(p), found))
}

func (e *EmbedFS) WalkDir(root string, fn fs.WalkDirFunc) error {
	return fs.WalkDir(e.fsys, e.resolve(root), func(p string, d fs.DirEntry, err error) error {
		// ベースパスからの相対パスに変換
		if e.basePath != "" {
			switch {
			case p == e.basePath:
				p = "."
			case strings.HasPrefix(p, e.basePath+"/"):
				p = strings.TrimPrefix(p, e.basePath+"/")
			}
		}
		return fn(p, d, err)
	})
}

func (e *EmbedFS) BasePath() string { return e.basePath }

// trimRoot は先頭の "/" や "\" と "." を除去する
func trimRoot(name string) string {
	name = strings.TrimLeft(name, "/\\")
	if name == "." {
		return ""
	}
	return name
}

// findCaseInsensitive returns the entry of dir whose name matches filename
// ignoring case.
func findCaseInsensitive(fsys fs.FS, dir, filename string) (string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(entry.Name(), filename) {
			return entry.Name(), nil
		}
	}
	return "", fmt.Errorf("file not found: %s (searched in %s)", filename, dir)
}
