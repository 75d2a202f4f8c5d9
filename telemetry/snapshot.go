package telemetry

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// SnapshotMeta describes a set of images captured at one tick.
type SnapshotMeta struct {
	Version int     `json:"version"`
	RunID   string  `json:"run_id"`
	Seed    int64   `json:"seed"`
	Tick    int64   `json:"tick"`
	SimTime float64 `json:"sim_time"`
	Mode    string  `json:"mode"`
	Image   int     `json:"image"`

	// Files maps a layer name to its file name within the snapshot directory
	Files map[string]string `json:"files"`
}

// Layer is one named image in a snapshot.
type Layer struct {
	Name string
	Img  image.Image
}

// WriteImage encodes img to path. The format follows the extension:
// .bmp and .tif/.tiff are supported besides the default PNG.
func WriteImage(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp":
		err = bmp.Encode(f, img)
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// WriteSnapshot writes each layer as <dir>/<prefix>_<name><ext> plus a JSON
// sidecar <dir>/<prefix>.json describing them.
func WriteSnapshot(dir, prefix, ext string, meta SnapshotMeta, layers []Layer) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	if ext == "" {
		ext = ".png"
	}

	meta.Version = SnapshotVersion
	meta.Files = make(map[string]string, len(layers))
	for _, l := range layers {
		name := fmt.Sprintf("%s_%s%s", prefix, l.Name, ext)
		if err := WriteImage(filepath.Join(dir, name), l.Img); err != nil {
			return err
		}
		meta.Files[l.Name] = name
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, prefix+".json"), data, 0644); err != nil {
		return fmt.Errorf("writing snapshot metadata: %w", err)
	}
	return nil
}

// LoadSnapshotMeta reads a snapshot sidecar.
func LoadSnapshotMeta(path string) (*SnapshotMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var meta SnapshotMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if meta.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", meta.Version, SnapshotVersion)
	}
	return &meta, nil
}
