package pagestore

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/pdfmcr/internal/apperr"
	"github.com/starford/pdfmcr/internal/jpeg"
	"github.com/starford/pdfmcr/internal/model"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "pages.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var scanInfo = jpeg.Info{
	BitDepth:    8,
	Width:       2480,
	Height:      3508,
	ColorSpace:  jpeg.RGB,
	DensityUnit: jpeg.DotsPerInch,
	DensityX:    300,
	DensityY:    300,
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM pages`).Scan(&count); err != nil {
		t.Fatalf("pages table missing: %v", err)
	}
}

func TestAddAndGet(t *testing.T) {
	db := testDB(t)
	for i, p := range []string{"a.jpeg", "b.jpeg"} {
		n, err := db.AddPage(PageRow{ImagePath: p, Checksum: "cs-" + p, Image: scanInfo})
		if err != nil {
			t.Fatalf("AddPage(%s): %v", p, err)
		}
		if n != i {
			t.Errorf("AddPage(%s) = %d, want %d", p, n, i)
		}
	}

	got, err := db.Get(1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Index != 1 || got.ImagePath != "b.jpeg" || got.Checksum != "cs-b.jpeg" {
		t.Errorf("page = %+v", got)
	}
	if d := cmp.Diff(scanInfo, got.Image); d != "" {
		t.Errorf("image info (-want +got):\n%s", d)
	}
	if d := cmp.Diff(model.Empty(), got.Annotations); d != "" {
		t.Errorf("new page annotations (-want +got):\n%s", d)
	}

	if n, _ := db.Count(); n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
	if n, err := db.IndexOf("b.jpeg"); err != nil || n != 1 {
		t.Errorf("IndexOf = %d, %v", n, err)
	}
}

func TestAddDuplicate(t *testing.T) {
	db := testDB(t)
	_, _ = db.AddPage(PageRow{ImagePath: "a.jpeg", Image: scanInfo})
	if _, err := db.AddPage(PageRow{ImagePath: "a.jpeg", Image: scanInfo}); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate AddPage = %v, want ErrAlreadyExists", err)
	}
}

func TestNotFound(t *testing.T) {
	db := testDB(t)
	_, _ = db.AddPage(PageRow{ImagePath: "a.jpeg", Image: scanInfo})

	for _, n := range []int{-1, 1, 7} {
		if _, err := db.Get(n); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("Get(%d) = %v, want ErrNotFound", n, err)
		}
		if err := db.SetAnnotations(n, model.Empty()); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("SetAnnotations(%d) = %v, want ErrNotFound", n, err)
		}
	}
	if _, err := db.IndexOf("missing.jpeg"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("IndexOf missing = %v", err)
	}
	if err := db.Relink("missing.jpeg", "x.jpeg"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Relink missing = %v", err)
	}
}

func TestSetAnnotations(t *testing.T) {
	db := testDB(t)
	_, _ = db.AddPage(PageRow{ImagePath: "a.jpeg", Image: scanInfo})
	_, _ = db.AddPage(PageRow{ImagePath: "b.jpeg", Image: scanInfo})

	want := model.PageAnnotations{
		Annotations: []model.Annotation{{
			Left: 72, Bottom: 700, FontSize: 12, Leading: 2,
			Elements: []model.TextChunk{{Text: "Title", FontVariant: model.Bold, Language: model.Str("en")}},
		}},
		Artifacts: []model.Artifact{{
			Kind:       model.Pagination,
			Annotation: model.Annotation{Left: 300, Bottom: 20, FontSize: 9, Elements: []model.TextChunk{{Text: "1", FontVariant: model.Regular}}},
		}},
	}
	if err := db.SetAnnotations(1, want); err != nil {
		t.Fatalf("SetAnnotations: %v", err)
	}
	got, err := db.Get(1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d := cmp.Diff(want, got.Annotations); d != "" {
		t.Errorf("annotations (-want +got):\n%s", d)
	}
	first, _ := db.Get(0)
	if len(first.Annotations.Annotations) != 0 {
		t.Error("SetAnnotations touched another page")
	}
}

func TestRelinkKeepsPosition(t *testing.T) {
	db := testDB(t)
	_, _ = db.AddPage(PageRow{ImagePath: "a.jpeg", Checksum: "same", Image: scanInfo})
	_, _ = db.AddPage(PageRow{ImagePath: "b.jpeg", Image: scanInfo})

	if err := db.Relink("a.jpeg", "moved/a.jpeg"); err != nil {
		t.Fatalf("Relink: %v", err)
	}
	pages, err := db.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var paths []string
	for _, p := range pages {
		paths = append(paths, p.ImagePath)
	}
	if d := cmp.Diff([]string{"moved/a.jpeg", "b.jpeg"}, paths); d != "" {
		t.Errorf("paths (-want +got):\n%s", d)
	}
	if got, _ := db.PathsByChecksum("same"); len(got) != 1 || got[0] != "moved/a.jpeg" {
		t.Errorf("PathsByChecksum = %v", got)
	}
}
