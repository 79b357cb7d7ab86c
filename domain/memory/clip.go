package memory

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// ClipData is the content of one externally captured share.
type ClipData struct {
	ID      string `json:"id,omitempty"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
	Date    string `json:"date,omitempty"`
}

// SharedClip is one inbox entry. Key is assigned by the store and doubles as
// the opaque ordering token: ULIDs sort lexicographically by creation time.
type SharedClip struct {
	Key  string   `json:"key"`
	Data ClipData `json:"data"`
}

// NewClipKey returns a fresh, time-ordered inbox key.
func NewClipKey() string {
	return ulid.Make().String()
}

// clipDateLayouts are tried in order when converting a clip's original
// timestamp. Anything unparseable falls back to the drain time.
var clipDateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

// FromSharedClip converts an inbox clip into a web memory with a fresh local
// id. The clip's original timestamp is kept when present and parseable.
func FromSharedClip(clip SharedClip, now time.Time) Memory {
	date := now
	if clip.Data.Date != "" {
		for _, layout := range clipDateLayouts {
			if t, err := time.Parse(layout, clip.Data.Date); err == nil {
				date = t
				break
			}
		}
	}

	title := clip.Data.Title
	if title == "" {
		title = clip.Data.URL
	}

	return Memory{
		ID:       NewID(),
		Kind:     KindWeb,
		Date:     date,
		Title:    title,
		Category: CategoryPersonal,
		Web: &WebPayload{
			URL:     clip.Data.URL,
			Content: clip.Data.Content,
		},
	}
}
