package fetcher

import (
	"archive/zip"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Files go-shp expects next to a .shp, keyed by the shapefile's base name.
var shapefileSidecars = []string{".shx", ".dbf", ".prj", ".cpg"}

// unpack extracts the dataset file from a downloaded archive into dir and
// returns its path. Entries are flattened into dir. With exts, the first
// extension (in order) that matches an entry wins; without exts the archive
// must hold a single file. A .shp comes out with its sidecar files.
func unpack(archive, dir string, exts []string, maxBytes int64) (string, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: open archive %s", filepath.Base(archive))
	}
	defer r.Close() //nolint:errcheck

	files := datasetEntries(r.File)
	pick, err := pickEntry(files, exts)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: %s", filepath.Base(archive))
	}

	wanted := []*zip.File{pick}
	if strings.EqualFold(path.Ext(pick.Name), ".shp") {
		wanted = append(wanted, sidecars(files, pick)...)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrap(err, "fetcher: create extract dir")
	}
	for _, f := range wanted {
		if err := extractEntry(f, dir, maxBytes); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, path.Base(pick.Name)), nil
}

// datasetEntries drops directories and the resource-fork copies macOS adds
// to archives it creates.
func datasetEntries(all []*zip.File) []*zip.File {
	var out []*zip.File
	for _, f := range all {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") || strings.HasPrefix(path.Base(f.Name), "._") {
			continue
		}
		out = append(out, f)
	}
	return out
}

func pickEntry(files []*zip.File, exts []string) (*zip.File, error) {
	if len(exts) == 0 {
		if len(files) != 1 {
			return nil, eris.Errorf("archive holds %d files, expected 1", len(files))
		}
		return files[0], nil
	}
	for _, ext := range exts {
		for _, f := range files {
			if strings.EqualFold(path.Ext(f.Name), ext) {
				return f, nil
			}
		}
	}
	return nil, eris.Errorf("archive has no %s file", strings.Join(exts, " or "))
}

// sidecars returns the entries sharing the shapefile's directory and stem.
func sidecars(files []*zip.File, shp *zip.File) []*zip.File {
	stem := strings.TrimSuffix(shp.Name, path.Ext(shp.Name))
	var out []*zip.File
	for _, f := range files {
		ext := path.Ext(f.Name)
		if !strings.EqualFold(strings.TrimSuffix(f.Name, ext), stem) {
			continue
		}
		for _, want := range shapefileSidecars {
			if strings.EqualFold(ext, want) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

func extractEntry(f *zip.File, dir string, maxBytes int64) error {
	name := path.Base(f.Name)
	if name == "." || name == ".." || name == "/" {
		return eris.Errorf("fetcher: unusable archive entry %q", f.Name)
	}
	if maxBytes > 0 && f.UncompressedSize64 > uint64(maxBytes) {
		return eris.Errorf("fetcher: %s unpacks to %d bytes, over the %d byte limit", name, f.UncompressedSize64, maxBytes)
	}

	rc, err := f.Open()
	if err != nil {
		return eris.Wrapf(err, "fetcher: open archive entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	_, err = writeFile(filepath.Join(dir, name), rc, maxBytes)
	return err
}
