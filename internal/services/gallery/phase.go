package gallery

// Phase is the lifecycle of the gallery listing.
type Phase int

const (
	Idle Phase = iota
	LoadingMetadata
	Populated
	Failed
)

func (p Phase) String() string {
	switch p {
	case LoadingMetadata:
		return "loading_metadata"
	case Populated:
		return "populated"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Load status values reported per key and for the main image.
const (
	StatusNone    = "none"
	StatusLoading = "loading"
	StatusLoaded  = "loaded"
	StatusFailed  = "failed"
)
