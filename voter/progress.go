package voter

// Progress is the state of a vote attempt. The four states execute strictly
// in this order and are delivered to a single observer; nothing is emitted
// after a failure.
type Progress int

const (
	ProgressBuildingInputs Progress = iota
	ProgressGeneratingProof
	ProgressSubmitting
	ProgressConfirmed
)

func (p Progress) String() string {
	switch p {
	case ProgressBuildingInputs:
		return "buildingInputs"
	case ProgressGeneratingProof:
		return "generatingProof"
	case ProgressSubmitting:
		return "submitting"
	case ProgressConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}
