package attach

import "fmt"

// NoticeKind classifies a non-fatal problem.
type NoticeKind uint8

const (
	// NoticeFontFallback means a text decoration is drawn with the
	// fallback font.
	NoticeFontFallback NoticeKind = iota
	// NoticePatternFallback means a pattern failed to load and the fill
	// used the fallback color.
	NoticePatternFallback
	// NoticePoseRejected means a computed pose failed validation and the
	// previous pose was kept.
	NoticePoseRejected
	// NoticeWriteFailed means the store refused a write-back.
	NoticeWriteFailed
)

// String returns the string representation of the notice kind.
func (k NoticeKind) String() string {
	switch k {
	case NoticeFontFallback:
		return "font-fallback"
	case NoticePatternFallback:
		return "pattern-fallback"
	case NoticePoseRejected:
		return "pose-rejected"
	case NoticeWriteFailed:
		return "write-failed"
	default:
		return "unknown"
	}
}

// Notice reports a recoverable problem to the user interface.
type Notice struct {
	Kind         NoticeKind
	DecorationID string
	Err          error
}

func (n Notice) String() string {
	if n.Err == nil {
		return fmt.Sprintf("%s: %s", n.Kind, n.DecorationID)
	}
	return fmt.Sprintf("%s: %s: %v", n.Kind, n.DecorationID, n.Err)
}
