package internal

// Segment is one translatable unit extracted from an interchange document.
// The ID is the trans-unit id from the source file and is the sole key used
// to route a translation back to its slot during merge.
type Segment struct {
	ID     string `json:"id"`
	Source string `json:"source"`
}

// Translation is one produced record in a batch result file. Source is
// carried for human auditability only; merge consumes ID and Target.
// Target is a pointer so that a record whose target key is absent can be
// told apart from one whose target is an empty string.
type Translation struct {
	ID     string  `json:"id"`
	Source string  `json:"source,omitempty"`
	Target *string `json:"target"`
}

// NewTranslation builds a record with a present (possibly empty) target.
func NewTranslation(id, source, target string) Translation {
	return Translation{ID: id, Source: source, Target: &target}
}
