package ingest

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch runs an initial ingestion of root and then re-ingests files as
// they are created or modified, until ctx is cancelled. New
// subdirectories are picked up as they appear.
func (s *Service) Watch(ctx context.Context, root string, extensions []string) error {
	if _, err := s.Run(ctx, root, extensions); err != nil {
		return err
	}

	// Run skips preparation when nothing matched yet, but files created
	// later still need the collection to exist before their upserts.
	if err := s.prepare(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watchTree(watcher, root); err != nil {
		return err
	}
	s.logger.Info("watching for changes", zap.String("path", root))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if err := watchTree(watcher, event.Name); err != nil {
					s.logger.Warn("cannot watch new directory",
						zap.String("path", event.Name), zap.Error(err))
				}
				continue
			}
			if !extensionAllowed(event.Name, extensions) {
				continue
			}

			stored, err := s.ingestFile(ctx, event.Name)
			if err != nil {
				s.logger.Warn("re-ingestion failed",
					zap.String("file", event.Name), zap.Error(err))
				continue
			}
			s.logger.Info("re-ingested",
				zap.String("file", event.Name), zap.Int("chunks", stored))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// watchTree registers root and every subdirectory with the watcher.
// Files under a watched directory report events without registration.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return watcher.Add(filepath.Dir(root))
	}

	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
}
