package sandbox

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// FileTemplate returns a TemplateSource reading a zip archive from disk.
func FileTemplate(path string) TemplateSource {
	return func(context.Context) ([]byte, error) {
		return os.ReadFile(path)
	}
}

// StaticTemplate returns a TemplateSource serving an in-memory archive.
func StaticTemplate(archive []byte) TemplateSource {
	return func(context.Context) ([]byte, error) {
		return archive, nil
	}
}

// UnpackTemplate extracts a zip archive into the runtime's project root.
// Archives produced from a checked-out directory usually wrap everything in
// a single top-level folder; that common root is stripped so the project
// lands at the root itself.
func UnpackTemplate(rt Runtime, archive []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return fmt.Errorf("open template archive: %w", err)
	}
	prefix := commonRoot(zr.File)
	for _, f := range zr.File {
		name := path.Clean(strings.TrimPrefix(f.Name, prefix))
		if name == "." || name == "" {
			continue
		}
		if strings.HasPrefix(name, "..") {
			return fmt.Errorf("template entry escapes root: %q", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := rt.MkdirAll(name); err != nil {
				return fmt.Errorf("mkdir %s: %w", name, err)
			}
			continue
		}
		if dir := path.Dir(name); dir != "." {
			if err := rt.MkdirAll(dir); err != nil {
				return fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
		if err := rt.WriteFile(name, content); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// commonRoot returns the single top-level directory shared by every entry,
// with a trailing slash, or "" when entries live at more than one root.
func commonRoot(files []*zip.File) string {
	root := ""
	for _, f := range files {
		name := strings.TrimPrefix(f.Name, "./")
		if name == "" {
			continue
		}
		i := strings.IndexByte(name, '/')
		if i < 0 {
			return ""
		}
		top := name[:i+1]
		if top == "../" {
			return ""
		}
		if root == "" {
			root = top
		} else if top != root {
			return ""
		}
	}
	return root
}
