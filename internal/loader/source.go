package loader

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/RMahshie/s2plab/internal/storage"
)

// DefaultPattern matches the antenna measurement files.
const DefaultPattern = "antenna*.s2p"

// Source lists measurement files and reads their text.
type Source interface {
	List(ctx context.Context) ([]string, error)
	ReadText(ctx context.Context, name string) (string, error)
}

// ReadError wraps a failure to read a file's bytes.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string { return fmt.Sprintf("read %s: %v", e.Path, e.Err) }

func (e *ReadError) Unwrap() error { return e.Err }

// DirSource reads files directly under Dir whose base name matches Pattern.
type DirSource struct {
	Dir     string
	Pattern string
}

// NewDirSource creates a directory source; an empty pattern means DefaultPattern.
func NewDirSource(dir, pattern string) *DirSource {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &DirSource{Dir: dir, Pattern: pattern}
}

func (s *DirSource) List(ctx context.Context) ([]string, error) {
	if _, err := path.Match(s.Pattern, ""); err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", s.Pattern, err)
	}

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.Dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := path.Match(s.Pattern, e.Name()); ok {
			names = append(names, filepath.Join(s.Dir, e.Name()))
		}
	}
	return names, nil
}

func (s *DirSource) ReadText(ctx context.Context, name string) (string, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return "", &ReadError{Path: name, Err: err}
	}
	return string(data), nil
}

// ObjectSource reads measurement files from an object store under Prefix.
type ObjectSource struct {
	Store   storage.ObjectStore
	Prefix  string
	Pattern string
}

// NewObjectSource creates an object-store source; an empty pattern means DefaultPattern.
func NewObjectSource(store storage.ObjectStore, prefix, pattern string) *ObjectSource {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &ObjectSource{Store: store, Prefix: prefix, Pattern: pattern}
}

func (s *ObjectSource) List(ctx context.Context) ([]string, error) {
	keys, err := s.Store.ListKeys(ctx, s.Prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects under %q: %w", s.Prefix, err)
	}

	var names []string
	for _, k := range keys {
		if ok, _ := path.Match(s.Pattern, path.Base(k)); ok {
			names = append(names, k)
		}
	}
	return names, nil
}

func (s *ObjectSource) ReadText(ctx context.Context, name string) (string, error) {
	data, err := s.Store.DownloadFile(ctx, name)
	if err != nil {
		return "", &ReadError{Path: name, Err: err}
	}
	return string(data), nil
}

// FileIndex is the integer formed by every digit in the file's stem, as in
// "antenna12.s2p" -> 12. ok is false when the stem has no digits.
func FileIndex(name string) (idx int, ok bool) {
	base := path.Base(filepath.ToSlash(name))
	stem := strings.TrimSuffix(base, path.Ext(base))

	var digits strings.Builder
	for _, r := range stem {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, false
	}
	return n, true
}

// SortByIndex orders names by FileIndex. Names without digits go last;
// equal indices fall back to the name.
func SortByIndex(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		a, aok := FileIndex(names[i])
		b, bok := FileIndex(names[j])
		switch {
		case aok != bok:
			return aok
		case aok && a != b:
			return a < b
		default:
			return names[i] < names[j]
		}
	})
}
