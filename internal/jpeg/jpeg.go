// Package jpeg reads the header fields of scanned page images and renders
// thumbnails.
package jpeg

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	stdjpeg "image/jpeg"
	"io"

	"golang.org/x/image/draw"
)

// ColorSpace of a scanned image, derived from the frame's component count.
type ColorSpace string

const (
	Grayscale ColorSpace = "Grayscale"
	RGB       ColorSpace = "Rgb"
	CMYK      ColorSpace = "Cmyk"
)

// DensityUnit is the unit of the JFIF pixel density.
type DensityUnit string

const (
	NoUnit            DensityUnit = "NoUnit"
	DotsPerInch       DensityUnit = "DotsPerInch"
	DotsPerCentimeter DensityUnit = "DotsPerCentimeter"
)

// Info holds the header fields of a JPEG page image.
type Info struct {
	BitDepth    uint8       `json:"bit_depth"`
	Width       uint16      `json:"width"`
	Height      uint16      `json:"height"`
	ColorSpace  ColorSpace  `json:"color_space"`
	DensityUnit DensityUnit `json:"density_unit"`
	DensityX    uint16      `json:"density_x"`
	DensityY    uint16      `json:"density_y"`
}

// Marker bytes.
const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP0 = 0xE0
)

var errNoScan = errors.New("jpeg: no start of scan")

func isSOF(kind byte) bool {
	switch {
	case kind >= 0xC0 && kind <= 0xC3,
		kind >= 0xC5 && kind <= 0xC7,
		kind >= 0xC9 && kind <= 0xCB,
		kind >= 0xCD && kind <= 0xCF:
		return true
	}
	return false
}

// Parse reads the segments before the first scan and extracts the frame
// and JFIF density fields. It does not decode image data.
func Parse(r io.Reader) (Info, error) {
	br := bufio.NewReader(r)
	var (
		info              Info
		haveFrame, haveJF bool
		first             = true
	)
	for {
		kind, data, err := readSegment(br)
		if err != nil {
			return Info{}, err
		}
		if first {
			if kind != markerSOI {
				return Info{}, fmt.Errorf("jpeg: first marker is 0x%02X, want start of image", kind)
			}
			first = false
			continue
		}
		switch {
		case kind == markerSOS:
			if !haveFrame {
				return Info{}, errors.New("jpeg: missing start of frame")
			}
			if !haveJF {
				return Info{}, errors.New("jpeg: missing JFIF header")
			}
			return info, nil
		case kind == markerEOI:
			return Info{}, errNoScan
		case kind == markerAPP0:
			if !bytes.HasPrefix(data, []byte("JFIF\x00")) {
				continue
			}
			if err := parseJFIF(data, &info); err != nil {
				return Info{}, err
			}
			haveJF = true
		case isSOF(kind):
			if err := parseFrame(data, &info); err != nil {
				return Info{}, err
			}
			haveFrame = true
		}
	}
}

func readSegment(r *bufio.Reader) (byte, []byte, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, nil, errNoScan
		}
		return 0, nil, fmt.Errorf("jpeg: read marker: %w", err)
	}
	if hdr[0] != 0xFF {
		return 0, nil, fmt.Errorf("jpeg: not a marker (0x%02X)", hdr[0])
	}
	kind := hdr[1]
	if kind >= 0xD0 && kind <= markerEOI {
		return kind, nil, nil
	}
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return 0, nil, fmt.Errorf("jpeg: read segment length: %w", err)
	}
	if n < 2 {
		return 0, nil, fmt.Errorf("jpeg: segment 0x%02X too short", kind)
	}
	data := make([]byte, n-2)
	if _, err := io.ReadFull(r, data); err != nil {
		return 0, nil, fmt.Errorf("jpeg: read segment 0x%02X: %w", kind, err)
	}
	return kind, data, nil
}

func parseJFIF(data []byte, info *Info) error {
	if len(data) < 12 {
		return fmt.Errorf("jpeg: JFIF header too short (%d bytes)", len(data))
	}
	if major := data[5]; major != 1 {
		return fmt.Errorf("jpeg: unsupported JFIF version %d.%02d", data[5], data[6])
	}
	switch data[7] {
	case 0:
		info.DensityUnit = NoUnit
	case 1:
		info.DensityUnit = DotsPerInch
	case 2:
		info.DensityUnit = DotsPerCentimeter
	default:
		return fmt.Errorf("jpeg: unknown density unit %d", data[7])
	}
	info.DensityX = binary.BigEndian.Uint16(data[8:10])
	info.DensityY = binary.BigEndian.Uint16(data[10:12])
	return nil
}

func parseFrame(data []byte, info *Info) error {
	if len(data) < 6 {
		return fmt.Errorf("jpeg: start of frame too short (%d bytes)", len(data))
	}
	info.BitDepth = data[0]
	info.Height = binary.BigEndian.Uint16(data[1:3])
	info.Width = binary.BigEndian.Uint16(data[3:5])
	switch data[5] {
	case 1:
		info.ColorSpace = Grayscale
	case 3:
		info.ColorSpace = RGB
	case 4:
		info.ColorSpace = CMYK
	default:
		return fmt.Errorf("jpeg: unknown color space with %d components", data[5])
	}
	return nil
}

// Validate rejects images that cannot be placed on a page: no density unit,
// and zero bit depth, dimensions or density.
func (i Info) Validate() error {
	switch {
	case i.DensityUnit == NoUnit:
		return errors.New("JPEG images without a density unit are not supported")
	case i.BitDepth == 0:
		return errors.New("JPEG image cannot have a bit depth of 0")
	case i.Width == 0 || i.Height == 0:
		return errors.New("JPEG image cannot have a width or height of 0")
	case i.DensityX == 0 || i.DensityY == 0:
		return errors.New("JPEG image cannot have a horizontal or vertical pixel density of 0")
	}
	return nil
}

// SizePoints returns the printed page size in points.
func (i Info) SizePoints() (width, height float64) {
	dx, dy := float64(i.DensityX), float64(i.DensityY)
	if i.DensityUnit == DotsPerCentimeter {
		dx *= 2.54
		dy *= 2.54
	}
	if dx == 0 || dy == 0 {
		return 0, 0
	}
	return float64(i.Width) / dx * 72, float64(i.Height) / dy * 72
}

// ThumbnailQuality is the JPEG quality of rendered thumbnails.
const ThumbnailQuality = 85

// Thumbnail decodes a JPEG and scales it to the given width, keeping the
// aspect ratio. Images narrower than width are returned re-encoded at
// their own size.
func Thumbnail(data []byte, width int) ([]byte, error) {
	src, err := stdjpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("jpeg: decode: %w", err)
	}
	b := src.Bounds()
	if width <= 0 || width > b.Dx() {
		width = b.Dx()
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := stdjpeg.Encode(&buf, dst, &stdjpeg.Options{Quality: ThumbnailQuality}); err != nil {
		return nil, fmt.Errorf("jpeg: encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
