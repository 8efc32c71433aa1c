package domain

import "time"

const (
	ItemTypeFile      = "file"
	ItemTypeDirectory = "directory"
)

type FileItem struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Type      string    `json:"type"`
	Size      int64     `json:"size"`
	Modified  time.Time `json:"modified"`
	Extension string    `json:"extension,omitempty"`
}

type ItemProperties struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	Created    time.Time `json:"created"`
	Modified   time.Time `json:"modified"`
	Accessed   time.Time `json:"accessed"`
	Attributes []string  `json:"attributes"`
	ItemCount  int       `json:"itemCount,omitempty"`
}

// DirectoryEvent is pushed on the directory-changed channel.
type DirectoryEvent struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Op   string `json:"op"`
}
