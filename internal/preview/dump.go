package preview

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// FrameDump writes rendered frames as numbered PNG files.
type FrameDump struct {
	outputDir string
	prefix    string
}

// NewFrameDump creates a dumper writing <prefix>_<index>.png into outputDir.
func NewFrameDump(outputDir, prefix string) *FrameDump {
	return &FrameDump{
		outputDir: outputDir,
		prefix:    prefix,
	}
}

// Filename returns the path of frame i.
func (d *FrameDump) Filename(i int) string {
	return filepath.Join(d.outputDir, fmt.Sprintf("%s_%04d.png", d.prefix, i))
}

// Write saves every image and returns the written paths in order.
func (d *FrameDump) Write(images []image.Image) ([]string, error) {
	if err := os.MkdirAll(d.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	paths := make([]string, 0, len(images))
	for i, img := range images {
		path := d.Filename(i)
		if err := writePNG(path, img); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return file.Close()
}
