package filewatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// ErrModified is the cause of contexts canceled by modification of watched files.
var ErrModified = errors.New("filewatch: modified")

// UntilModifyContext returns a context that is canceled
// when one of target files is modified (= written, created, removed, renamed or chmod-ed).
//
// context.Cause of the canceled context is ErrModified, naming the file and the operation.
//
// # Args
//
// - ctx: context.Context
//
// - targetFilePath ...string: files or directories to be watched.
//
// # Returns
//
// - context.Context: context that is canceled when one of target files is modified.
//
// - func(): cancel function.
//
// - error: error caused when it fails to start watching files.
//
// If error is not nil, both of the the context and the cancel function are nil.
func UntilModifyContext(ctx context.Context, targetFilePath ...string) (context.Context, func(), error) {
	cctx, cancel := context.WithCancelCause(ctx)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		cancel(err)
		return nil, nil, err
	}

	for _, f := range targetFilePath {
		if err := w.Add(f); err != nil {
			w.Close()
			cancel(err)
			return nil, nil, err
		}
	}

	go func() {
		defer w.Close()

		for {
			select {
			case <-cctx.Done():
				return
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				cancel(err)
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				cancel(fmt.Errorf("%w: %s (%s)", ErrModified, event.Name, event.Op.String()))
				return
			}
		}
	}()

	return cctx, func() { cancel(nil) }, nil
}
