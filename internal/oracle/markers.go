package oracle

import "strings"

// Marker phrases the oracle is instructed to emit verbatim.
const (
	MarkerClueFound = "단서 발견!"
	MarkerClose     = "거의 근접했습니다."
	MarkerFailed    = "아직 단서를 찾지 못했습니다."
)

// Categorical answers to yes/no-style questions.
const (
	AnswerYes          = "네."
	AnswerYesImportant = "네, 아주 중요한 질문입니다."
	AnswerNo           = "아니오."
	AnswerIrrelevant   = "아니오. 중요하지 않습니다."
	AnswerNotYesNo     = "예, 아니오로 대답할 수 없는 질문입니다."
)

// Answers lists the categorical answers in prompt order.
var Answers = []string{
	AnswerYes,
	AnswerYesImportant,
	AnswerNo,
	AnswerIrrelevant,
	AnswerNotYesNo,
}

// Verdict is the coarse category of an oracle response.
type Verdict string

const (
	VerdictClueFound Verdict = "clue_found"
	VerdictClose     Verdict = "close"
	VerdictFailed    Verdict = "failed"
	VerdictAnswer    Verdict = "answer"
	VerdictUnknown   Verdict = "unknown"
)

// Classify maps a raw oracle response to a Verdict. Guess markers win over
// yes/no phrases; longer yes/no phrases are matched before their prefixes.
func Classify(response string) Verdict {
	switch {
	case strings.Contains(response, MarkerClueFound):
		return VerdictClueFound
	case strings.Contains(response, MarkerClose):
		return VerdictClose
	case strings.Contains(response, MarkerFailed):
		return VerdictFailed
	}
	trimmed := strings.TrimSpace(response)
	for _, a := range []string{AnswerYesImportant, AnswerIrrelevant, AnswerNotYesNo, AnswerYes, AnswerNo} {
		if strings.HasPrefix(trimmed, a) {
			return VerdictAnswer
		}
	}
	return VerdictUnknown
}
