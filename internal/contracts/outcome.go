package contracts

import "fmt"

// OutcomeKind tags the result of evaluating one instrument
type OutcomeKind int

const (
	OutcomeMatched OutcomeKind = iota + 1
	OutcomeFilteredOut
	OutcomeTransientFailure
	OutcomeFatalFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeMatched:
		return "matched"
	case OutcomeFilteredOut:
		return "filtered_out"
	case OutcomeTransientFailure:
		return "transient_failure"
	case OutcomeFatalFailure:
		return "fatal_failure"
	default:
		return "unknown"
	}
}

// Outcome is the explicit result of an evaluation step
// ⭐ SSOT: 오케스트레이터는 예외 대신 이 태그로 분기
type Outcome struct {
	Kind   OutcomeKind
	Code   string
	Match  *MatchRecord // OutcomeMatched
	Stage  Stage        // OutcomeFilteredOut
	Reason string       // OutcomeFilteredOut
	Err    error        // OutcomeTransientFailure, OutcomeFatalFailure
}

// Matched builds an OutcomeMatched
func Matched(m *MatchRecord) Outcome {
	return Outcome{Kind: OutcomeMatched, Code: m.Code, Match: m}
}

// FilteredOut builds an OutcomeFilteredOut
func FilteredOut(code string, stage Stage, reason string) Outcome {
	return Outcome{Kind: OutcomeFilteredOut, Code: code, Stage: stage, Reason: reason}
}

// TransientFailure builds an OutcomeTransientFailure
func TransientFailure(code string, err error) Outcome {
	return Outcome{Kind: OutcomeTransientFailure, Code: code, Err: err}
}

// FatalFailure builds an OutcomeFatalFailure
func FatalFailure(err error) Outcome {
	return Outcome{Kind: OutcomeFatalFailure, Err: err}
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeFilteredOut:
		return fmt.Sprintf("%s %s (%s/%s)", o.Code, o.Kind, o.Stage.ShortName(), o.Reason)
	case OutcomeTransientFailure, OutcomeFatalFailure:
		return fmt.Sprintf("%s %s: %v", o.Code, o.Kind, o.Err)
	default:
		return fmt.Sprintf("%s %s", o.Code, o.Kind)
	}
}
