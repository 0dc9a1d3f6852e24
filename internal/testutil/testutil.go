// Package testutil provides shared test helpers for page images, image
// directories and databases.
package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/pdfmcr/internal/pagestore"
	"github.com/starford/pdfmcr/internal/storage"
)

// JFIF density units.
const (
	UnitNone = 0
	UnitDPI  = 1
	UnitDPCM = 2
)

// JPEG encodes a w×h gray gradient and inserts a JFIF header with the given
// density.
func JPEG(t testing.TB, w, h int, unit byte, dx, dy uint16) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) % 256)})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()

	app0 := []byte{0xFF, 0xE0, 0, 16, 'J', 'F', 'I', 'F', 0, 1, 1, unit, 0, 0, 0, 0, 0, 0}
	binary.BigEndian.PutUint16(app0[12:14], dx)
	binary.BigEndian.PutUint16(app0[14:16], dy)

	out := make([]byte, 0, len(raw)+len(app0))
	out = append(out, raw[:2]...)
	out = append(out, app0...)
	out = append(out, raw[2:]...)
	return out
}

// TestDB creates a temporary page database that is automatically cleaned up.
func TestDB(t *testing.T) *pagestore.DB {
	t.Helper()
	db, err := pagestore.Open(filepath.Join(t.TempDir(), "pdfmcr-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestImageDir creates a temporary image directory with a storage.Provider.
func TestImageDir(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteFile writes data to name under dir.
func WriteFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatal(err)
	}
}
