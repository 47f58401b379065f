package model

import (
	"strings"
	"time"
)

// Entry represents one listed file or folder from the remote drive.
// Entries are immutable once fetched; a re-fetched entry with the same ID
// is the same logical entry even if its ModifiedAt changed.
type Entry struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	MimeType      string    `json:"mimeType"`
	Size          int64     `json:"size,string,omitempty"` // absent for folders
	ModifiedAt    time.Time `json:"modifiedTime"`
	ThumbnailLink string    `json:"thumbnailLink,omitempty"`
	WebViewLink   string    `json:"webViewLink,omitempty"`
	OwnerTag      string    `json:"description,omitempty"` // free-text attribution
}

// Kind returns the entry's classification, derived from its MIME type.
// It is never stored redundantly.
func (e Entry) Kind() Kind {
	return KindFromMime(e.MimeType)
}

// IsMedia returns true for entries a sequential media viewer can show.
func (e Entry) IsMedia() bool {
	k := e.Kind()
	return k == KindImage || k == KindVideo
}

// MonthKey returns the year-month bucket key for grouped-by-time views,
// e.g. "2024-07". Entries without a timestamp return "".
func (e Entry) MonthKey() string {
	if e.ModifiedAt.IsZero() {
		return ""
	}
	return e.ModifiedAt.Format("2006-01")
}

// MonthLabel returns the display label for the entry's month bucket,
// e.g. "July 2024".
func (e Entry) MonthLabel() string {
	if e.ModifiedAt.IsZero() {
		return ""
	}
	return e.ModifiedAt.Format("January 2006")
}

// Kind classifies an entry by its MIME type.
type Kind int

const (
	KindOther Kind = iota
	KindFolder
	KindImage
	KindVideo
	KindAudio
	KindDocument
)

const folderMime = "application/vnd.google-apps.folder"

// KindFromMime maps a MIME type to a Kind.
func KindFromMime(mime string) Kind {
	switch {
	case mime == folderMime:
		return KindFolder
	case strings.HasPrefix(mime, "image/"):
		return KindImage
	case strings.HasPrefix(mime, "video/"):
		return KindVideo
	case strings.HasPrefix(mime, "audio/"):
		return KindAudio
	case mime == "application/pdf",
		strings.Contains(mime, "document"),
		strings.Contains(mime, "spreadsheet"),
		strings.Contains(mime, "presentation"):
		return KindDocument
	default:
		return KindOther
	}
}

// String returns the lowercase name used in filter values and URLs.
func (k Kind) String() string {
	switch k {
	case KindFolder:
		return "folder"
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindDocument:
		return "document"
	default:
		return "other"
	}
}

// ParseKind is the inverse of Kind.String. Unknown names return KindOther
// and false.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "folder":
		return KindFolder, true
	case "image":
		return KindImage, true
	case "video":
		return KindVideo, true
	case "audio":
		return KindAudio, true
	case "document":
		return KindDocument, true
	case "other":
		return KindOther, true
	default:
		return KindOther, false
	}
}

// Frame is one element of the navigation stack: a visited folder on the
// path from the root to the currently open folder.
type Frame struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
