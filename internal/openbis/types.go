package openbis

import (
	"strings"
	"time"
)

// EntryType identifies the kind of catalog object an entry represents.
type EntryType string

const (
	TypeDataset    EntryType = "dataset"
	TypeSample     EntryType = "sample"
	TypeExperiment EntryType = "experiment"
)

// CatalogEntry is one object in the catalog: a dataset, sample, or
// experiment, with its server-assigned identifier and typed properties.
type CatalogEntry struct {
	ID         string            `json:"id"`
	Type       EntryType         `json:"type"`
	Properties map[string]string `json:"properties,omitempty"`
	Collection string            `json:"collection,omitempty"`
	Registered time.Time         `json:"registered,omitempty"`
}

// Property returns the trimmed value of the named property, or "" when the
// property is absent.
func (e CatalogEntry) Property(name string) string {
	return strings.TrimSpace(e.Properties[name])
}

// DisplayName returns the best human-readable name for the entry: the $name
// property when present, otherwise the notes property, otherwise the id.
func (e CatalogEntry) DisplayName() string {
	if v := e.Property("$name"); v != "" {
		return v
	}
	if v := e.Property("notes"); v != "" {
		return v
	}
	return e.ID
}

// Filters narrows a catalog search. Zero values mean no restriction; Limit 0
// lets the server apply its default page size.
type Filters struct {
	Collection string
	Limit      int
	Offset     int
}

// Space is a top-level organizational unit of the catalog.
type Space struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Projects    int    `json:"projects,omitempty"`
}

// DataSetFile describes one file stored inside a dataset.
type DataSetFile struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// UploadRequest describes a dataset registration: the files to transfer, the
// catalog type and collection it belongs to, and its initial properties.
type UploadRequest struct {
	Type       string
	Collection string
	Properties map[string]string
	Files      []string
}
