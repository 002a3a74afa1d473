package signature

// ListID identifies which legacy list or buffer a SigMatch belongs to.
// Values below ListMax name one of the fixed legacy lists; values at or
// above ListMax are buffer ids handed out by the keyword registry for
// app-layer or custom sticky buffers (spec.md §3).
type ListID int

const (
	ListMatch ListID = iota
	ListPMatch
	ListBase64Data
	ListTMatch
	ListPostMatch
	ListSuppress
	ListThreshold

	// ListMax is the exclusive upper bound of the legacy list ids; the
	// legacy-list array is sized to hold exactly this many slots.
	ListMax
)

// FileDataListID and HTTPURIListID are the sticky buffer/content-modifier
// ids the builtin file_data and http_uri keywords target (ruleparser's
// setup.go). They live here, rather than as unexported constants in
// ruleparser, so the validator and engine packages can name the same ids
// without an import cycle.
const (
	FileDataListID = ListID(int(ListMax) + 100)
	HTTPURIListID  = ListID(int(ListMax) + 101)
)

// MaxBuffers is the cap on the number of distinct buffers a signature may
// allocate (spec.md §3, "Cap: 64 buffers").
const MaxBuffers = 64

// BufferGrowBy is how many new buffer slots are pre-allocated at a time
// when the buffer vector needs to grow (spec.md §4.5).
const BufferGrowBy = 8

// SigAlprotoMax bounds the size of the multi-alproto candidate set
// (spec.md §3, "implementation picks a small fixed cap, e.g. 4").
const SigAlprotoMax = 4

func listName(id ListID) string {
	switch id {
	case ListMatch:
		return "packet"
	case ListPMatch:
		return "payload"
	case ListBase64Data:
		return "base64_data"
	case ListPostMatch:
		return "postmatch"
	case ListTMatch:
		return "tag"
	case ListSuppress:
		return "suppress"
	case ListThreshold:
		return "threshold"
	case ListMax:
		return "max (internal)"
	default:
		return "unknown"
	}
}

// ListToHumanString mirrors DetectListToHumanString from detect-parse.c.
func ListToHumanString(id ListID) string {
	return listName(id)
}
