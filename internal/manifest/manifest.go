package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"example.com/vgmgate/internal/common"
)

// Item describes one hashed artifact.
type Item struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Sha256 string `json:"sha256"`
	Type   string `json:"type"`
}

// Manifest is a hashed inventory of the files a validation run touched or
// produced.
type Manifest struct {
	CreatedAt time.Time `json:"createdAt"`
	ShaAlgo   string    `json:"shaAlgo"`
	Items     []Item    `json:"items"`
}

// Build hashes every path and classifies it by extension.
func Build(paths []string) (Manifest, error) {
	m := Manifest{CreatedAt: time.Now().UTC(), ShaAlgo: "sha256"}
	for _, p := range paths {
		hex, sz, err := common.Sha256OfFile(p)
		if err != nil {
			return m, err
		}
		m.Items = append(m.Items, Item{Path: p, Size: sz, Sha256: hex, Type: TypeOf(p)})
	}
	return m, nil
}

// TypeOf maps a file name to its manifest entry type.
func TypeOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vgm":
		return "vgm"
	case ".vgz":
		return "vgz"
	case ".json":
		return "json"
	case ".ndjson", ".jsonl":
		return "ndjson"
	case ".pdf":
		return "pdf"
	case ".png":
		return "png"
	default:
		return "other"
	}
}

func Save(m Manifest, out string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

func Load(path string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}
