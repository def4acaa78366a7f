package credentials

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	goerrors "github.com/goliatone/go-errors"
)

// ChangeFunc receives the credential after another process replaced or
// removed it. present is false when the credential is gone.
type ChangeFunc func(token string, present bool)

// Watcher reports changes to a FileStore made outside this process, for
// example a logout from a second terminal.
type Watcher struct {
	store    *FileStore
	onChange ChangeFunc
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	last    string
	present bool

	errs chan error
}

// NewWatcher watches the directory of the store file. The current credential
// is the baseline; only differences from it are reported.
func NewWatcher(store *FileStore, onChange ChangeFunc) (*Watcher, error) {
	if store == nil || onChange == nil {
		return nil, goerrors.New("credential watcher requires a store and a callback", goerrors.CategoryValidation)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create credential watcher")
	}

	// the file is replaced by rename, so watch its directory
	if err := fw.Add(filepath.Dir(store.Path())); err != nil {
		fw.Close()
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to watch credential directory").
			WithMetadata(map[string]any{"path": store.Path()})
	}

	w := &Watcher{
		store:    store,
		onChange: onChange,
		watcher:  fw,
		errs:     make(chan error, 1),
	}
	w.last, w.present, _ = store.Read(context.Background())
	return w, nil
}

// Errors delivers watcher failures. The channel is buffered; errors are
// dropped when nobody reads.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.store.Path() {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.check(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) check(ctx context.Context) {
	token, present, err := w.store.Read(ctx)
	if err != nil {
		select {
		case w.errs <- err:
		default:
		}
		return
	}

	w.mu.Lock()
	if token == w.last && present == w.present {
		w.mu.Unlock()
		return
	}
	w.last, w.present = token, present
	w.mu.Unlock()

	w.onChange(token, present)
}

// Sync resets the baseline to the current stored value. Call it after this
// process writes the store so its own writes are not reported.
func (w *Watcher) Sync(ctx context.Context) {
	token, present, err := w.store.Read(ctx)
	if err != nil {
		return
	}
	w.mu.Lock()
	w.last, w.present = token, present
	w.mu.Unlock()
}
