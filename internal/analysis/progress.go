package analysis

// Stage names a step of a contract analysis, reported through a Progress callback.
type Stage string

const (
	StageSource     Stage = "source"
	StageBytecode   Stage = "bytecode"
	StageToken      Stage = "token"
	StageSignals    Stage = "signals"
	StageTokenomics Stage = "tokenomics"
	StageScoring    Stage = "scoring"
	StageCreator    Stage = "creator"
	StageDone       Stage = "done"
)

// Progress receives stage updates. It is called synchronously from the
// analysing goroutine and must not block for long.
type Progress func(stage Stage, detail string)

func (p Progress) report(stage Stage, detail string) {
	if p != nil {
		p(stage, detail)
	}
}
