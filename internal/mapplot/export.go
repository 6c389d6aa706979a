package mapplot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/massmap/internal/massmap"
	"github.com/banshee-data/massmap/internal/massmap/sht"
	"github.com/banshee-data/massmap/internal/monitoring"
	"github.com/banshee-data/massmap/internal/security"
)

// Spherical planes are rasterised at this resolution.
const (
	skyNX = 180
	skyNY = 90
)

// ImageFor turns any plane into an Image: 2D planes directly, 1D planes
// through s. s may be nil for flat maps.
func ImageFor(p massmap.Plane, s sht.Sampling) (*Image, error) {
	if len(p.Dims) == 2 {
		return FromPlane(p)
	}
	if s == nil {
		return nil, fmt.Errorf("plane %s is spherical but no sampling was given", p.Tag)
	}
	return Equirectangular(p, s, skyNX, skyNY)
}

// Export writes every signal plane of a run as <run>_<tag>.png into pngDir
// and <run>_<tag>.html into htmlDir. Empty directories are skipped.
// Coordinate planes are not rendered. The written paths are returned.
func Export(pngDir, htmlDir, run string, planes []massmap.Plane, s sht.Sampling) ([]string, error) {
	var written []string
	for _, p := range planes {
		if p.Tag == massmap.TagGridRA || p.Tag == massmap.TagGridDec {
			continue
		}
		img, err := ImageFor(p, s)
		if err != nil {
			return written, err
		}
		img.Title = run + " " + p.Tag
		base := security.SanitizeFilename(run + "_" + p.Tag)

		if pngDir != "" {
			path, err := outputPath(pngDir, base+".png")
			if err != nil {
				return written, err
			}
			if err := WritePNG(path, img); err != nil {
				return written, fmt.Errorf("failed to write %s: %w", path, err)
			}
			written = append(written, path)
		}
		if htmlDir != "" {
			path, err := outputPath(htmlDir, base+".html")
			if err != nil {
				return written, err
			}
			if err := writeHTMLFile(path, img); err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}
	if len(written) > 0 {
		monitoring.Logf("mapplot: wrote %d files for %s", len(written), run)
	}
	return written, nil
}

func outputPath(dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := security.ValidatePathWithinDirectory(path, dir); err != nil {
		return "", err
	}
	return path, nil
}

func writeHTMLFile(path string, img *Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := RenderHTML(f, img, filepath.Base(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
