package oracle

import (
	"fmt"
	"strings"

	"github.com/hyperengineering/turtlesoup/internal/catalog"
)

// SystemPrompt frames every judgment call.
const SystemPrompt = "당신은 '바다거북수프' 게임의 게임마스터입니다. 정해진 형식으로만 한국어로 답합니다."

// Prompt is a single judgment request.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt embeds the episode's question, backstory, and full clue list
// together with the player's input. Classification of the input as a
// question or a guess is left to the oracle.
func BuildPrompt(ep catalog.Episode, input string) Prompt {
	var b strings.Builder

	fmt.Fprintf(&b, "에피소드: %s\n", ep.Title)
	fmt.Fprintf(&b, "문제: %s\n", ep.Question)
	fmt.Fprintf(&b, "정답(플레이어에게 절대 공개하지 마세요): %s\n\n", ep.Answer)

	b.WriteString("단서 목록:\n")
	for i, clue := range ep.Clues {
		fmt.Fprintf(&b, "%d. %s\n", i+1, clue)
	}

	fmt.Fprintf(&b, "\n플레이어 입력: %q\n\n", input)

	b.WriteString("## 입력 분류\n")
	b.WriteString("입력이 예/아니오로 답할 수 있는 질문이면 [질문], 사건의 진상이나 단서를 추리한 문장이면 [추리]로 판단하세요.\n\n")

	b.WriteString("## [질문]일 때 가능한 답변 (하나만 그대로 출력)\n")
	for _, a := range Answers {
		fmt.Fprintf(&b, "- %q\n", a)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "올바른 방향의 질문 → %q\n", AnswerYes)
	fmt.Fprintf(&b, "핵심 단서를 드러내는 질문 → %q\n", AnswerYesImportant)
	fmt.Fprintf(&b, "틀린 방향의 질문 → %q\n", AnswerNo)
	fmt.Fprintf(&b, "관련 없거나 중요하지 않은 질문 → %q\n", AnswerIrrelevant)
	fmt.Fprintf(&b, "예/아니오로 답할 수 없는 질문 → %q\n\n", AnswerNotYesNo)

	b.WriteString("## [추리]일 때\n")
	b.WriteString("입력이 단서 목록 중 하나 이상과 의미상 90% 이상 일치하면:\n")
	fmt.Fprintf(&b, "1. %q 로 시작하고\n", MarkerClueFound)
	b.WriteString("2. 일치한 단서를 단서 목록의 문장 그대로 한 줄에 하나씩 적으세요.\n")
	fmt.Fprintf(&b, "방향은 맞지만 부족하면 %q 라고만 답하세요.\n", MarkerClose)
	fmt.Fprintf(&b, "일치하지 않으면 %q 라고만 답하세요.\n", MarkerFailed)

	return Prompt{
		System: SystemPrompt,
		User:   b.String(),
	}
}
