package pagestore

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/pdfmcr/internal/apperr"
	"github.com/starford/pdfmcr/internal/checksum"
	"github.com/starford/pdfmcr/internal/jpeg"
	"github.com/starford/pdfmcr/internal/storage"
)

// Sync walks the image directory and brings the page store up to date:
//   - JPEGs without a page are parsed and appended as new pages
//   - pages whose image was renamed on disk are relinked by checksum
//
// Pages whose image is missing are kept with their annotations and
// reported as warnings.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	_, err := reconcile(db, store, logger, nil)
	return err
}

// reconcile returns the number of pages added or relinked.
func reconcile(db *DB, store storage.Provider, logger *slog.Logger, cb EventCallback) (int, error) {
	metas, err := store.List()
	if err != nil {
		return 0, err
	}
	known, err := db.AllImagePaths()
	if err != nil {
		return 0, err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}
	}
	for p := range known {
		if _, ok := disk[p]; !ok {
			logger.Warn("sync: page image missing", slog.String("path", p))
		}
	}

	changed := 0
	for _, m := range metas {
		if _, ok := known[m.Path]; ok {
			continue
		}
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		kind, err := addOrRelink(db, store, m.Path, data)
		if err != nil {
			logger.Warn("sync: import failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: page "+kind, slog.String("path", m.Path))
		changed++
		if cb != nil {
			cb(kind, m.Path)
		}
	}
	return changed, nil
}

// addOrRelink relinks a page whose image went missing and had the same
// content, or else appends a new page for path. It returns the event kind.
func addOrRelink(db *DB, store storage.Provider, path string, data []byte) (string, error) {
	olds, err := db.PathsByChecksum(checksum.Sum(data))
	if err != nil {
		return "", err
	}
	for _, old := range olds {
		if old == path || store.Exists(old) {
			continue
		}
		if err := db.Relink(old, path); err != nil {
			return "", err
		}
		return EventRelinked, nil
	}
	if _, err := importImage(db, path, data); err != nil {
		return "", err
	}
	return EventCreated, nil
}

// importImage parses and validates a JPEG and appends it as a page.
func importImage(db PageIndex, path string, data []byte) (int, error) {
	info, err := jpeg.Parse(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperr.ErrInvalidImage, err)
	}
	if err := info.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", apperr.ErrInvalidImage, err)
	}
	return db.AddPage(PageRow{
		ImagePath: path,
		Checksum:  checksum.Sum(data),
		Image:     info,
	})
}

// ImportImage appends a page for an image that is already stored at path.
// If a page for path exists, its index is returned.
func ImportImage(db PageIndex, path string, data []byte) (int, error) {
	n, err := importImage(db, path, data)
	if errors.Is(err, apperr.ErrAlreadyExists) {
		return db.IndexOf(path)
	}
	return n, err
}
