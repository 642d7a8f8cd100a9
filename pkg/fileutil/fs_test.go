package fileutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"testing/fstest"
)

func TestRealFS_ReadFileCaseInsensitive(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, "maps"), 0755); err != nil {
		t.Fatal(err)
	}
	for name, content := range map[string]string{
		"Guard.ASM":       "guard",
		"maps/Arroyo.asm": "arroyo",
	} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}
	}

	fsys := NewRealFS(tmpDir)
	tests := []struct {
		name string
		want string
	}{
		{"Guard.ASM", "guard"},
		{"guard.asm", "guard"},
		{"/GUARD.asm", "guard"},
		{"maps/arroyo.ASM", "arroyo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := fsys.ReadFile(tt.name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("got %q, want %q", data, tt.want)
			}
		})
	}

	if _, err := fsys.ReadFile("missing.asm"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRealFS_WalkDirRelative(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.asm", "sub/b.asm"} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	var files []string
	err := NewRealFS(tmpDir).WalkDir(".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, filepath.ToSlash(p))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(files, []string{"a.asm", "sub/b.asm"}) {
		t.Errorf("files = %v", files)
	}
}

func TestEmbedFS(t *testing.T) {
	mfs := fstest.MapFS{
		"scripts/Door.asm":    {Data: []byte("door")},
		"scripts/npc/rat.asm": {Data: []byte("rat")},
		"other/ignored.asm":   {Data: []byte("x")},
	}
	fsys := NewEmbedFS(mfs, "scripts")

	data, err := fsys.ReadFile("door.ASM")
	if err != nil || string(data) != "door" {
		t.Errorf("ReadFile(door.ASM) = %q, %v", data, err)
	}
	if fsys.BasePath() != "scripts" {
		t.Errorf("BasePath() = %q", fsys.BasePath())
	}

	var files []string
	err = fsys.WalkDir(".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(files, []string{"Door.asm", "npc/rat.asm"}) {
		t.Errorf("files = %v", files)
	}
}
