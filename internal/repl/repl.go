package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"githubActivity/internal/events"
	"githubActivity/internal/github"
	"githubActivity/internal/model"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

const Prompt = "github-activity> "

const helpText = `
Available commands:
  <username>                      Show all recent activity
  <username> push                 Show push events
  <username> issues               Show issues activity
  <username> pullrequest          Show pull request activity
  <username> issuecomment         Show issue comments
  <username> watch                Show stars
  <username> fork                 Show forks
  <username> history [filter]     Show recorded activity without calling GitHub
  start                           Show the welcome message
  help                            Show this list
  exit, quit                      Leave
`

const startText = `
👋 Welcome to Github-Activity CLI!
Github-Activity is a simple command line interface (CLI) to fetch the recent activity of a GitHub user.

👉 Quickstart examples:
   <username>
   <username> push
Type 'help' to see available commands, 'exit' to quit.
`

//nolint:gochecknoglobals
var (
	promptColor  = color.New(color.FgCyan, color.Bold)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	goodbyeColor = color.New(color.FgGreen)
)

type Options struct {
	Service  events.Service
	In       io.Reader
	Out      io.Writer
	Location *time.Location
	Logger   *zap.Logger
}

// REPL reads one command per line and runs it to completion before reading
// the next one.
type REPL struct {
	svc events.Service
	in  io.Reader
	out io.Writer
	loc *time.Location
	lg  *zap.Logger

	reading sync.WaitGroup
}

func New(opts Options) *REPL {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &REPL{
		svc: opts.Service,
		in:  opts.In,
		out: opts.Out,
		loc: opts.Location,
		lg:  opts.Logger,
	}
}

// Run prints the welcome banner and serves commands until exit/quit, end of
// input or ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	// releases the reader if it is blocked handing over a line nobody will take
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	r.reading.Add(1)
	go func() {
		defer r.reading.Done()
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	r.Start()
	for {
		promptColor.Fprint(r.out, Prompt)

		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out)
			goodbyeColor.Fprintln(r.out, "Exiting Github Activity CLI. Bye! 👋")
			return nil
		case err := <-readErr:
			fmt.Fprintln(r.out)
			goodbyeColor.Fprintln(r.out, "Exiting Github Activity CLI. Bye! 👋")
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return nil
		case line := <-lines:
			if quit := r.Execute(ctx, line); quit {
				return nil
			}
		}
	}
}

// Execute runs one command line and reports whether the loop should end.
func (r *REPL) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	r.lg.Debug("command", zap.Strings("fields", fields))

	if len(fields) == 1 {
		switch strings.ToLower(fields[0]) {
		case "exit", "quit":
			goodbyeColor.Fprintln(r.out, "Goodbye! 👋")
			return true
		case "help":
			r.Help()
			return false
		case "start":
			r.Start()
			return false
		}
		r.activity(ctx, fields[0], model.All)
		return false
	}

	username, word := fields[0], strings.ToLower(fields[1])
	if word == "history" {
		if len(fields) > 3 {
			r.usage(line)
			return false
		}
		f := model.All
		if len(fields) == 3 {
			var err error
			if f, err = model.ParseFilter(fields[2]); err != nil {
				r.unknown(fields[2])
				return false
			}
		}
		r.history(ctx, username, f)
		return false
	}

	if len(fields) > 2 {
		r.usage(line)
		return false
	}
	f, err := model.ParseFilter(word)
	if err != nil {
		r.unknown(fields[1])
		return false
	}
	r.activity(ctx, username, f)
	return false
}

func (r *REPL) Help() {
	fmt.Fprint(r.out, helpText)
}

func (r *REPL) Start() {
	fmt.Fprint(r.out, startText)
}

func (r *REPL) usage(line string) {
	warnColor.Fprintf(r.out, "⚠️  Could not understand %q. Usage: <username> [filter]. Type 'help' to see commands.\n", line)
}

func (r *REPL) unknown(word string) {
	warnColor.Fprintf(r.out, "⚠️  Unknown command: %s. Type 'help' to see commands.\n", word)
}

func (r *REPL) activity(ctx context.Context, username string, f model.Filter) {
	rep, err := r.svc.Activity(ctx, username, f)
	r.print(username, rep, err)
}

func (r *REPL) history(ctx context.Context, username string, f model.Filter) {
	rep, err := r.svc.History(ctx, username, f)
	r.print(username, rep, err)
}

func (r *REPL) print(username string, rep *events.Report, err error) {
	if err != nil {
		r.lg.Info("command_failed", zap.String("username", username), zap.Error(err))
		var emptyErr *events.EmptyError
		if errors.As(err, &emptyErr) {
			r.skipped(emptyErr.Skipped)
		}
		msg := Describe(err, username, r.loc)
		if errors.Is(err, events.ErrEmptyResult) || errors.Is(err, github.ErrRateLimited) ||
			errors.Is(err, events.ErrHistoryDisabled) {
			warnColor.Fprintln(r.out, msg)
		} else {
			errorColor.Fprintln(r.out, msg)
		}
		return
	}

	for _, e := range rep.Events {
		fmt.Fprintln(r.out, events.Format(e, r.loc))
	}
	r.skipped(rep.Skipped)
}

func (r *REPL) skipped(errs []error) {
	for _, err := range errs {
		warnColor.Fprintf(r.out, "⚠️  Skipped an event that could not be read (%v)\n", err)
	}
}

// Describe turns a service error into the single line shown to the user.
func Describe(err error, username string, loc *time.Location) string {
	var (
		statusErr *github.StatusError
		emptyErr  *events.EmptyError
	)

	switch {
	case errors.Is(err, github.ErrUserNotFound):
		return fmt.Sprintf("❌ User %s not found on GitHub.", username)
	case errors.Is(err, github.ErrRateLimited):
		msg := "⚠️  Rate limit exceeded. Try again later or set GITHUB_TOKEN."
		if errors.As(err, &statusErr) && !statusErr.Reset.IsZero() {
			msg += " Limit resets at " + statusErr.Reset.In(loc).Format(events.TimeLayout) + "."
		}
		return msg
	case errors.Is(err, github.ErrNetwork):
		return "❌ Network error: " + strings.TrimPrefix(err.Error(), github.ErrNetwork.Error()+": ")
	case errors.Is(err, github.ErrUnexpectedStatus):
		return "❌ Unexpected response from GitHub: " + strings.TrimPrefix(err.Error(), github.ErrUnexpectedStatus.Error()+": ")
	case errors.As(err, &emptyErr):
		return fmt.Sprintf("⚠️  No %s activity found for %s!", emptyErr.Filter.Noun(), username)
	case errors.Is(err, events.ErrHistoryDisabled):
		return "⚠️  History is not enabled. Set --history-db to record activity."
	default:
		return fmt.Sprintf("❌ Error: %v", err)
	}
}
