package filemonitor

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce collapses the burst of events produced by a single atomic rewrite
const DefaultDebounce = 200 * time.Millisecond

// FileChangeCallback defines the callback function signature for file change events
type FileChangeCallback func(event fsnotify.Event) error

// FileGroup is a set of files in one directory sharing the same callbacks
type FileGroup struct {
	ID        string
	RootDir   string
	Pattern   *regexp.Regexp
	callbacks []FileChangeCallback
	mutex     sync.RWMutex
}

// NewFileGroup creates a new file group
func NewFileGroup(id, rootDir, pattern string) (*FileGroup, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
	}
	return &FileGroup{
		ID:      id,
		RootDir: filepath.Clean(rootDir),
		Pattern: re,
	}, nil
}

// AddCallback adds a callback function to the file group
func (fg *FileGroup) AddCallback(callback FileChangeCallback) {
	fg.mutex.Lock()
	defer fg.mutex.Unlock()
	fg.callbacks = append(fg.callbacks, callback)
}

// Match checks if a file path belongs to this group
func (fg *FileGroup) Match(path string) bool {
	path = filepath.Clean(path)
	if filepath.Dir(path) != fg.RootDir {
		return false
	}
	return fg.Pattern.MatchString(filepath.Base(path))
}

func (fg *FileGroup) handle(event fsnotify.Event) {
	fg.mutex.RLock()
	callbacks := make([]FileChangeCallback, len(fg.callbacks))
	copy(callbacks, fg.callbacks)
	fg.mutex.RUnlock()

	for _, cb := range callbacks {
		if err := cb(event); err != nil {
			log.Error().
				Str("group", fg.ID).
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Err(err).
				Msg("Callback error")
		}
	}
}

// FileMonitor watches the directories of its groups and dispatches debounced events
type FileMonitor struct {
	groups   map[string]*FileGroup
	watcher  *fsnotify.Watcher
	debounce time.Duration
	pending  map[string]*time.Timer
	mutex    sync.Mutex
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewFileMonitor creates a new file monitor
func NewFileMonitor() *FileMonitor {
	return &FileMonitor{
		groups:   make(map[string]*FileGroup),
		pending:  make(map[string]*time.Timer),
		debounce: DefaultDebounce,
	}
}

// SetDebounce sets the quiet period before callbacks run
func (fm *FileMonitor) SetDebounce(d time.Duration) {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()
	fm.debounce = d
}

// AddGroup adds a new file group, watching its directory if the monitor is running
func (fm *FileMonitor) AddGroup(group *FileGroup) error {
	if group == nil {
		return errors.New("group cannot be nil")
	}
	fm.mutex.Lock()
	defer fm.mutex.Unlock()
	if _, exists := fm.groups[group.ID]; exists {
		return fmt.Errorf("group with ID '%s' already exists", group.ID)
	}
	fm.groups[group.ID] = group
	if fm.watcher != nil {
		if err := fm.watcher.Add(group.RootDir); err != nil {
			delete(fm.groups, group.ID)
			return fmt.Errorf("failed to watch directory '%s': %w", group.RootDir, err)
		}
	}
	return nil
}

// GetGroup returns the specified file group
func (fm *FileMonitor) GetGroup(id string) (*FileGroup, bool) {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()
	group, ok := fm.groups[id]
	return group, ok
}

// Start starts the file monitor
func (fm *FileMonitor) Start() error {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()
	if fm.watcher != nil {
		return errors.New("file monitor is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	for _, group := range fm.groups {
		if err := watcher.Add(group.RootDir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to setup watch for group '%s': %w", group.ID, err)
		}
	}

	fm.watcher = watcher
	fm.stopCh = make(chan struct{})
	fm.wg.Add(1)
	go fm.watchLoop(watcher, fm.stopCh)
	return nil
}

// Stop stops the file monitor
func (fm *FileMonitor) Stop() error {
	fm.mutex.Lock()
	watcher := fm.watcher
	if watcher == nil {
		fm.mutex.Unlock()
		return errors.New("file monitor is not running")
	}
	close(fm.stopCh)
	fm.watcher = nil
	for name, timer := range fm.pending {
		timer.Stop()
		delete(fm.pending, name)
	}
	fm.mutex.Unlock()

	fm.wg.Wait()
	if err := watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// IsRunning returns whether the file monitor is running
func (fm *FileMonitor) IsRunning() bool {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()
	return fm.watcher != nil
}

func (fm *FileMonitor) watchLoop(watcher *fsnotify.Watcher, stopCh chan struct{}) {
	defer fm.wg.Done()
	for {
		select {
		case <-stopCh:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			fm.schedule(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

// schedule 同一文件的连续事件只触发一次回调
func (fm *FileMonitor) schedule(event fsnotify.Event) {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()

	var matched []*FileGroup
	for _, group := range fm.groups {
		if group.Match(event.Name) {
			matched = append(matched, group)
		}
	}
	if len(matched) == 0 {
		return
	}

	if timer, ok := fm.pending[event.Name]; ok {
		timer.Stop()
	}
	fm.pending[event.Name] = time.AfterFunc(fm.debounce, func() {
		fm.mutex.Lock()
		delete(fm.pending, event.Name)
		fm.mutex.Unlock()
		for _, group := range matched {
			group.handle(event)
		}
	})
}
