package types

const STORED = "STORED"
const SKIPPED = "SKIPPED"
const FAILED = "FAILED"

// Outcome is the terminal state of one ingested item.
type Outcome struct {
	Index     int        `json:"index"`
	Kind      SourceKind `json:"kind"`
	Status    string     `json:"status"`
	Filename  string     `json:"filename,omitempty"`
	MediaType string     `json:"media_type,omitempty"`
	Size      int64      `json:"size,omitempty"`
	Reason    string     `json:"error,omitempty"`
	Err       error      `json:"-"`
}

func (o Outcome) Stored() bool {
	return o.Status == STORED
}
