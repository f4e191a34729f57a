// Package report maintains the page root: an append-only set of bundle
// directories, each describing itself with a metadata.json, plus the
// manifest.json and index.html derived from them.
//
// Layout:
//   - <page_root>/index.html: copy of the landing page template
//   - <page_root>/manifest.json: every bundle's metadata, newest first
//   - <page_root>/<bundle>/metadata.json: written last; its presence marks the bundle complete
//   - <page_root>/<bundle>/<kind>/: copied test report tree
package report

import "encoding/json"

// Well-known file names.
const (
	MetadataFile = "metadata.json"
	ManifestFile = "manifest.json"
	IndexFile    = "index.html"
)

// TimestampFormat is fixed width so string order equals time order.
const TimestampFormat = "20060102-150405"

// jsonIndent matches the manifest format consumed by the landing page.
const jsonIndent = "    "

// Metadata describes one bundle.
type Metadata struct {
	Name      string   `json:"name"`
	CommitSHA string   `json:"commit_sha"`
	RunNumber string   `json:"run_number"`
	Timestamp string   `json:"timestamp"` // UTC, TimestampFormat
	DirName   string   `json:"dirName"`
	Reports   []string `json:"reports"` // Kinds in copy order
}

// Entry is a completed bundle found under the page root.
type Entry struct {
	Dir       string          // Child directory name
	Timestamp string          // Empty when the metadata has none
	Raw       json.RawMessage // metadata.json as read, kept verbatim for the manifest
}

// Metadata decodes the entry's raw metadata.
func (e Entry) Metadata() (Metadata, error) {
	var md Metadata
	err := json.Unmarshal(e.Raw, &md)
	return md, err
}

// PublishResult summarizes a published bundle.
type PublishResult struct {
	BundleDir string
	Metadata  Metadata
	Files     int   // Regular files copied
	Bytes     int64 // Bytes copied
}

// ManifestResult summarizes a manifest run.
type ManifestResult struct {
	Entries []Entry
	Skipped bool // Page root was not a directory; nothing written
}
