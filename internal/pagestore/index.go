package pagestore

import "github.com/starford/pdfmcr/internal/model"

// PageIndex defines the page store operations used by the service layer.
// Consumers should depend on this interface rather than the concrete *DB.
type PageIndex interface {
	AddPage(p PageRow) (int, error)
	Count() (int, error)
	List() ([]PageRow, error)
	Get(n int) (*PageRow, error)
	IndexOf(imagePath string) (int, error)
	SetAnnotations(n int, p model.PageAnnotations) error
	AllImagePaths() (map[string]string, error)
	PathsByChecksum(cs string) ([]string, error)
	Relink(oldPath, newPath string) error
	Close() error
}

// Verify *DB satisfies PageIndex at compile time.
var _ PageIndex = (*DB)(nil)
