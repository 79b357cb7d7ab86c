package memory

import "sort"

// SyncDocument is the unit of remote transfer and of local caching: the full
// set of memories plus the course list, addressed by a syncId. It carries no
// internal versioning; every push replaces the remote value wholly.
type SyncDocument struct {
	Memories []Memory `json:"memories"`
	Courses  []string `json:"courses"`
}

// EmptyDocument returns a document with non-nil empty slices, the shape the
// remote store also returns for an absent syncId.
func EmptyDocument() SyncDocument {
	return SyncDocument{Memories: []Memory{}, Courses: []string{}}
}

// Normalize replaces nil slices with empty ones so the JSON encoding is
// always {"memories":[],"courses":[]} and never null.
func (d *SyncDocument) Normalize() {
	if d.Memories == nil {
		d.Memories = []Memory{}
	}
	if d.Courses == nil {
		d.Courses = []string{}
	}
}

// Clone deep-copies the document.
func (d SyncDocument) Clone() SyncDocument {
	out := SyncDocument{
		Memories: make([]Memory, len(d.Memories)),
		Courses:  make([]string, len(d.Courses)),
	}
	for i, m := range d.Memories {
		out.Memories[i] = m.Clone()
	}
	copy(out.Courses, d.Courses)
	return out
}

// SortMemoriesByRecency orders memories newest first. The sort is stable so
// same-timestamp entries keep their insertion order.
func SortMemoriesByRecency(ms []Memory) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].Date.After(ms[j].Date)
	})
}
