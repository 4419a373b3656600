package registrar

// Stage is a node's position in the registration state machine:
//
//	NoSources -> Done
//	HasSources -> Generated -> Compiled -> Done
type Stage int

const (
	StageNoSources Stage = iota
	StageHasSources
	StageGenerated
	StageCompiled
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageNoSources:
		return "NoSources"
	case StageHasSources:
		return "HasSources"
	case StageGenerated:
		return "Generated"
	case StageCompiled:
		return "Compiled"
	case StageDone:
		return "Done"
	}
	return "Unknown"
}
