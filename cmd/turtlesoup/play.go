package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/hyperengineering/turtlesoup/internal/catalog"
	"github.com/hyperengineering/turtlesoup/internal/config"
	"github.com/hyperengineering/turtlesoup/internal/game"
	"github.com/hyperengineering/turtlesoup/internal/ratelimit"
	"github.com/hyperengineering/turtlesoup/internal/validation"
)

var playEpisode string

const playHelp = `Commands:
  /list            show episodes
  /select <title>  start an episode (a list number also works)
  /hint            reveal a paid hint
  /progress        show found clues
  /limits          show remaining requests
  /answer          show the story once every clue is found
  /reset           abandon the current episode
  /quit            exit`

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play an episode in the terminal",
	Long:  "Play an episode interactively. Type a question or deduction to investigate.\n\n" + playHelp,
	Args:  cobra.NoArgs,
	RunE:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playEpisode, "episode", "", "Start directly with this episode title")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// Logs go to stderr at warn so they do not interleave with the game.
	cfg.Log.Level = "warn"
	cfg.Log.Format = "text"
	setupLogger(os.Stderr, cfg.Log)

	c, err := buildCore(ctx, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer c.Close()

	r := &repl{
		game:      game.NewSession(c.catalog, c.oracle, c.guard),
		catalog:   c.catalog,
		guard:     c.guard,
		sessionID: ulid.Make().String(),
		out:       cmd.OutOrStdout(),
	}
	return r.run(ctx, cmd.InOrStdin(), playEpisode)
}

// repl drives one game session from line-oriented input.
type repl struct {
	game      *game.Session
	catalog   *catalog.Catalog
	guard     *ratelimit.Guard
	sessionID string
	out       io.Writer
}

func (r *repl) run(ctx context.Context, in io.Reader, episode string) error {
	fmt.Fprintln(r.out, "🐢 바다거북 수프에 오신 것을 환영합니다!")
	if episode != "" {
		r.selectEpisode(episode)
	} else {
		r.printEpisodes()
	}

	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if r.handle(ctx, line) {
			fmt.Fprintln(r.out, "안녕히 가세요!")
			return nil
		}
	}
}

// handle processes one line and reports whether the player asked to quit.
func (r *repl) handle(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, playHelp)
	case "/list":
		r.printEpisodes()
	case "/select":
		r.selectEpisode(arg)
	case "/hint":
		fmt.Fprintf(r.out, "💡 %s\n", r.game.PaidHint())
	case "/progress":
		r.printProgress()
	case "/limits":
		st := r.guard.Stats(r.sessionID)
		fmt.Fprintf(r.out, "사용: %d, 남은 요청: %d\n", st.TotalRequests, st.RemainingRequests)
	case "/answer":
		if answer, ok := r.game.Answer(); ok {
			fmt.Fprintf(r.out, "📖 %s\n", answer)
		} else {
			fmt.Fprintln(r.out, "모든 단서를 찾으면 이야기가 공개됩니다.")
		}
	case "/reset":
		r.game.Reset()
		fmt.Fprintln(r.out, "게임이 초기화되었습니다.")
		r.printEpisodes()
	default:
		if strings.HasPrefix(cmd, "/") {
			fmt.Fprintf(r.out, "알 수 없는 명령어입니다: %s (/help)\n", cmd)
			return false
		}
		if r.game.Phase() == game.PhaseSelecting {
			r.selectEpisode(line)
			return false
		}
		r.investigate(ctx, line)
	}
	return false
}

func (r *repl) investigate(ctx context.Context, input string) {
	if errs := validation.ValidateInvestigation(input); len(errs) > 0 {
		fmt.Fprintf(r.out, "입력 오류: %s\n", errs[0].Message)
		return
	}

	turn := r.game.InvestigateTurn(ctx, input, r.sessionID)
	fmt.Fprintf(r.out, "🤖 %s\n", turn.Response)
	for _, clue := range turn.NewClues {
		fmt.Fprintf(r.out, "🔎 새 단서: %s\n", clue)
	}
	if len(turn.NewClues) > 0 {
		r.printProgress()
	}
	if turn.Phase == game.PhaseFinished && len(turn.NewClues) > 0 {
		answer, _ := r.game.Answer()
		fmt.Fprintf(r.out, "🎉 모든 단서를 찾았습니다!\n📖 %s\n", answer)
	}
}

// selectEpisode accepts a title or a 1-based list number.
func (r *repl) selectEpisode(choice string) {
	title := choice
	if n, err := strconv.Atoi(choice); err == nil {
		titles := r.catalog.ListTitles()
		if n >= 1 && n <= len(titles) {
			title = titles[n-1]
		}
	}

	if !r.game.SelectEpisode(title) {
		fmt.Fprintf(r.out, "에피소드를 찾을 수 없습니다: %s\n", choice)
		return
	}
	info, _ := r.game.CurrentEpisode()
	fmt.Fprintf(r.out, "📜 %s\n%s\n", info.Title, info.Question)
}

func (r *repl) printEpisodes() {
	fmt.Fprintln(r.out, "에피소드를 선택하세요:")
	for i, title := range r.catalog.ListTitles() {
		fmt.Fprintf(r.out, "  %d. %s\n", i+1, title)
	}
}

func (r *repl) printProgress() {
	p, ok := r.game.Progress()
	if !ok {
		fmt.Fprintln(r.out, game.MsgSelectEpisode)
		return
	}
	fmt.Fprintf(r.out, "진행도: %d/%d (%.0f%%)\n", p.Found, p.Total, p.Percentage)
	for _, clue := range p.FoundList {
		fmt.Fprintf(r.out, "  ✅ %s\n", clue)
	}
	for range p.Remaining {
		fmt.Fprintln(r.out, "  ❓ ???")
	}
}
