package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "secondbrain-backend/pkg/errors"
)

// Kind discriminates the memory variants. Every Memory carries exactly one
// payload struct matching its Kind; consumers switch on Kind exhaustively.
type Kind string

const (
	KindVoice    Kind = "voice"
	KindWeb      Kind = "web"
	KindItem     Kind = "item"
	KindVideo    Kind = "video"
	KindDocument Kind = "document"
	KindFile     Kind = "file"
)

// Category separates college material from personal captures.
type Category string

const (
	CategoryCollege  Category = "college"
	CategoryPersonal Category = "personal"
)

// SourceType tags where a file memory came from.
type SourceType string

const (
	SourceManual SourceType = "manual"
	SourceMoodle SourceType = "moodle"
)

// Geo is an optional capture location.
type Geo struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// VoicePayload holds a recorded note's transcript and its derived summary.
// Summary is filled in later by the enrichment pipeline and may be empty.
type VoicePayload struct {
	Transcript string `json:"transcript"`
	Summary    string `json:"summary,omitempty"`
}

// WebPayload holds a clipped web page.
type WebPayload struct {
	URL     string `json:"url"`
	Content string `json:"content,omitempty"`
}

// ItemPayload references a photographed item.
type ItemPayload struct {
	ImageRef string `json:"imageRef"`
}

// VideoPayload references a recorded video.
type VideoPayload struct {
	VideoRef string `json:"videoRef"`
}

// DocumentPayload references a scanned document and its extracted text.
type DocumentPayload struct {
	ImageRef string `json:"imageRef"`
	OCRText  string `json:"ocrText,omitempty"`
}

// FilePayload references an ingested file. MoodleID is the external id used
// for deduplication when SourceType is moodle.
type FilePayload struct {
	FileRef    string     `json:"fileRef"`
	SourceType SourceType `json:"sourceType"`
	MoodleID   string     `json:"moodleId,omitempty"`
}

// Memory is one captured unit of content. It is a tagged union: Kind selects
// which payload pointer is set. The struct is the wire and cache format, so
// fields are exported and JSON-tagged rather than encapsulated behind
// accessors.
type Memory struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"kind"`
	Date     time.Time `json:"date"`
	Title    string   `json:"title"`
	Category Category `json:"category"`
	Course   string   `json:"course,omitempty"`
	Geo      *Geo     `json:"geo,omitempty"`

	// VoiceNote is an optional attached voice-note transcript on non-voice
	// memories (e.g. a spoken annotation on a scanned document).
	VoiceNote string `json:"voiceNote,omitempty"`
	IsHidden  bool   `json:"isHidden,omitempty"`

	Voice    *VoicePayload    `json:"voice,omitempty"`
	Web      *WebPayload      `json:"web,omitempty"`
	Item     *ItemPayload     `json:"item,omitempty"`
	Video    *VideoPayload    `json:"video,omitempty"`
	Document *DocumentPayload `json:"document,omitempty"`
	File     *FilePayload     `json:"file,omitempty"`
}

// NewID returns a fresh collision-resistant memory id.
func NewID() string {
	return uuid.NewString()
}

// Validate checks structural well-formedness: id, date and title present,
// a known kind, and the payload matching the kind set with no foreign
// payloads. Deep payload validation stays at the call site that built the
// memory.
func (m Memory) Validate() error {
	if m.ID == "" {
		return pkgerrors.NewValidationError("memory id cannot be empty")
	}
	if m.Title == "" {
		return pkgerrors.NewValidationError("memory title cannot be empty")
	}
	if m.Date.IsZero() {
		return pkgerrors.NewValidationError("memory date cannot be empty")
	}

	set := 0
	for _, p := range []bool{
		m.Voice != nil, m.Web != nil, m.Item != nil,
		m.Video != nil, m.Document != nil, m.File != nil,
	} {
		if p {
			set++
		}
	}
	if set > 1 {
		return pkgerrors.NewValidationError("memory carries more than one variant payload")
	}

	switch m.Kind {
	case KindVoice:
		if m.Voice == nil {
			return missingPayload(m.Kind)
		}
	case KindWeb:
		if m.Web == nil {
			return missingPayload(m.Kind)
		}
	case KindItem:
		if m.Item == nil {
			return missingPayload(m.Kind)
		}
	case KindVideo:
		if m.Video == nil {
			return missingPayload(m.Kind)
		}
	case KindDocument:
		if m.Document == nil {
			return missingPayload(m.Kind)
		}
	case KindFile:
		if m.File == nil {
			return missingPayload(m.Kind)
		}
		if m.File.SourceType != SourceManual && m.File.SourceType != SourceMoodle {
			return pkgerrors.NewValidationError(
				fmt.Sprintf("unknown file source type %q", m.File.SourceType))
		}
		if m.File.SourceType == SourceMoodle && m.File.MoodleID == "" {
			return pkgerrors.NewValidationError("moodle file requires a moodleId")
		}
	default:
		return pkgerrors.NewValidationError(fmt.Sprintf("unknown memory kind %q", m.Kind))
	}

	return nil
}

func missingPayload(k Kind) error {
	return pkgerrors.NewValidationError(fmt.Sprintf("%s memory is missing its %s payload", k, k))
}

// Clone returns a deep copy so callers can hand out snapshots without
// aliasing payload pointers.
func (m Memory) Clone() Memory {
	c := m
	if m.Geo != nil {
		g := *m.Geo
		c.Geo = &g
	}
	if m.Voice != nil {
		v := *m.Voice
		c.Voice = &v
	}
	if m.Web != nil {
		w := *m.Web
		c.Web = &w
	}
	if m.Item != nil {
		i := *m.Item
		c.Item = &i
	}
	if m.Video != nil {
		v := *m.Video
		c.Video = &v
	}
	if m.Document != nil {
		d := *m.Document
		c.Document = &d
	}
	if m.File != nil {
		f := *m.File
		c.File = &f
	}
	return c
}

// MemoryPatch is a partial update. Nil fields are left untouched; a non-nil
// payload pointer replaces that payload wholly. Applying the same patch
// twice yields the same result, which is what makes redundant enrichment
// writes safe.
type MemoryPatch struct {
	Title     *string   `json:"title,omitempty"`
	Category  *Category `json:"category,omitempty"`
	Course    *string   `json:"course,omitempty"`
	Geo       *Geo      `json:"geo,omitempty"`
	VoiceNote *string   `json:"voiceNote,omitempty"`
	IsHidden  *bool     `json:"isHidden,omitempty"`

	Voice    *VoicePayload    `json:"voice,omitempty"`
	Web      *WebPayload      `json:"web,omitempty"`
	Item     *ItemPayload     `json:"item,omitempty"`
	Video    *VideoPayload    `json:"video,omitempty"`
	Document *DocumentPayload `json:"document,omitempty"`
	File     *FilePayload     `json:"file,omitempty"`
}

// Apply merges the patch into m and returns the result. ID, Kind and Date
// are immutable.
func (p MemoryPatch) Apply(m Memory) Memory {
	out := m.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Course != nil {
		out.Course = *p.Course
	}
	if p.Geo != nil {
		g := *p.Geo
		out.Geo = &g
	}
	if p.VoiceNote != nil {
		out.VoiceNote = *p.VoiceNote
	}
	if p.IsHidden != nil {
		out.IsHidden = *p.IsHidden
	}
	if p.Voice != nil {
		v := *p.Voice
		out.Voice = &v
	}
	if p.Web != nil {
		w := *p.Web
		out.Web = &w
	}
	if p.Item != nil {
		i := *p.Item
		out.Item = &i
	}
	if p.Video != nil {
		v := *p.Video
		out.Video = &v
	}
	if p.Document != nil {
		d := *p.Document
		out.Document = &d
	}
	if p.File != nil {
		f := *p.File
		out.File = &f
	}
	return out
}
