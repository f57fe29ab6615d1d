// Package zip bundles rendered renovation images into a single archive
// for download.
package zip

import (
	"archive/zip"
	"bytes"
)

// Asset is one file to place in the archive. MIME is carried for callers
// that set response headers; the archive itself only uses Filename and Data.
type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// ArchiveAssets writes the assets into an in-memory zip. Returns nil if a
// write fails partway; an empty asset list yields a valid empty archive.
func ArchiveAssets(assets []Asset) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		w, err := zw.Create(asset.Filename)
		if err != nil {
			continue
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil
		}
	}
	if err := zw.Close(); err != nil {
		return nil
	}
	return buf.Bytes()
}
