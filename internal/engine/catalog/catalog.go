// Package catalog holds the file descriptors shared by sources, the resolver
// and the document renderer.
package catalog

import (
	"path"
	"sort"
	"strings"
)

type Kind string

const (
	KindGitHub    Kind = "github"
	KindDirectory Kind = "directory"
	KindZip       Kind = "zip"
)

// FileDescriptor identifies one candidate file. Path is the identity key used
// for content lookups and set membership.
type FileDescriptor struct {
	Name        string
	Path        string
	DisplayPath string
	IsDirectory bool
	SourceURL   string
	Kind        Kind
}

// Ext returns the lower-cased extension of the file name, including the dot.
func (f FileDescriptor) Ext() string {
	return strings.ToLower(path.Ext(f.Name))
}

func (f FileDescriptor) String() string {
	return f.Path
}

// HasExtension reports whether the file is a regular file whose extension
// matches one of exts case-insensitively.
func (f FileDescriptor) HasExtension(exts ...string) bool {
	if f.IsDirectory {
		return false
	}
	ext := f.Ext()
	if ext == "" {
		return false
	}
	for _, candidate := range exts {
		if strings.EqualFold(ext, normalizeExt(candidate)) {
			return true
		}
	}
	return false
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// NewFile builds a descriptor for a regular file whose path and display path
// are the same slash-separated relative path.
func NewFile(relPath, sourceURL string, kind Kind) FileDescriptor {
	return FileDescriptor{
		Name:        path.Base(relPath),
		Path:        relPath,
		DisplayPath: relPath,
		SourceURL:   sourceURL,
		Kind:        kind,
	}
}

// FileSet is an insertion-ordered set of descriptors keyed by Path.
type FileSet struct {
	order []string
	items map[string]FileDescriptor
}

func NewFileSet(files ...FileDescriptor) *FileSet {
	s := &FileSet{items: make(map[string]FileDescriptor, len(files))}
	for _, f := range files {
		s.Add(f)
	}
	return s
}

// Add inserts f and reports whether it was not already present.
func (s *FileSet) Add(f FileDescriptor) bool {
	if s.items == nil {
		s.items = make(map[string]FileDescriptor)
	}
	if _, ok := s.items[f.Path]; ok {
		return false
	}
	s.items[f.Path] = f
	s.order = append(s.order, f.Path)
	return true
}

func (s *FileSet) Contains(p string) bool {
	if s == nil {
		return false
	}
	_, ok := s.items[p]
	return ok
}

func (s *FileSet) Get(p string) (FileDescriptor, bool) {
	if s == nil {
		return FileDescriptor{}, false
	}
	f, ok := s.items[p]
	return f, ok
}

func (s *FileSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Files returns the members in insertion order.
func (s *FileSet) Files() []FileDescriptor {
	if s == nil {
		return nil
	}
	out := make([]FileDescriptor, 0, len(s.order))
	for _, p := range s.order {
		out = append(out, s.items[p])
	}
	return out
}

// Paths returns the member paths sorted lexically.
func (s *FileSet) Paths() []string {
	if s == nil {
		return nil
	}
	out := append([]string(nil), s.order...)
	sort.Strings(out)
	return out
}

// FilterExtensions returns the regular files in files matching exts.
func FilterExtensions(files []FileDescriptor, exts ...string) []FileDescriptor {
	out := make([]FileDescriptor, 0, len(files))
	for _, f := range files {
		if f.HasExtension(exts...) {
			out = append(out, f)
		}
	}
	return out
}

// FilesOnly drops directory entries.
func FilesOnly(files []FileDescriptor) []FileDescriptor {
	out := make([]FileDescriptor, 0, len(files))
	for _, f := range files {
		if !f.IsDirectory {
			out = append(out, f)
		}
	}
	return out
}

// Lookup finds a file by Path, falling back to DisplayPath.
func Lookup(files []FileDescriptor, p string) (FileDescriptor, bool) {
	p = strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(p), "\\", "/"), "/")
	for _, f := range files {
		if f.Path == p {
			return f, true
		}
	}
	for _, f := range files {
		if f.DisplayPath == p {
			return f, true
		}
	}
	return FileDescriptor{}, false
}
