package testutil

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"mcpswitch-go/internal/engine"
)

// MockFilesystemManager is an in-memory engine.FilesystemManager.
// Error injection fields make failure paths testable: a non-nil
// ReadErr/WriteErr is returned by every subsequent read/write.
type MockFilesystemManager struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool

	ReadErr  error
	WriteErr error
}

// NewMockFilesystemManager creates an empty mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

// AddFile seeds a file with content.
func (m *MockFilesystemManager) AddFile(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = append([]byte(nil), data...)
}

// File returns a file's content and whether it exists.
func (m *MockFilesystemManager) File(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[filepath.Clean(path)]
	return data, ok
}

// FilesIn returns the sorted paths of files under dir.
func (m *MockFilesystemManager) FilesIn(dir string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := filepath.Clean(dir) + string(filepath.Separator)
	var paths []string
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

func (m *MockFilesystemManager) Exists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return false, m.ReadErr
	}
	_, ok := m.files[filepath.Clean(path)]
	return ok, nil
}

func (m *MockFilesystemManager) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	data, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	return append([]byte(nil), data...), nil
}

func (m *MockFilesystemManager) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	clean := filepath.Clean(path)
	m.files[clean] = append([]byte(nil), data...)
	m.dirs[filepath.Dir(clean)] = true
	return nil
}

func (m *MockFilesystemManager) MkdirAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.dirs[filepath.Clean(path)] = true
	return nil
}

// Compile-time check that the mock implements the interface.
var _ engine.FilesystemManager = (*MockFilesystemManager)(nil)
