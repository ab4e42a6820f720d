package events

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"githubActivity/internal/model"
)

const (
	TimeLayout = "2006-01-02 15:04:05"

	commentPreview = 50
)

// Format renders one event as a display line. The timestamp is shown in loc;
// a nil loc means time.Local.
func Format(e model.Event, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	at := e.CreatedAt.In(loc).Format(TimeLayout)

	switch e.Kind {
	case model.KindPush:
		if e.Commits == 0 {
			return fmt.Sprintf("🟢 Pushed to %s at %s", e.Repo, at)
		}
		return fmt.Sprintf("🟢 Pushed %d %s to %s at %s", e.Commits, plural(e.Commits, "commit"), e.Repo, at)
	case model.KindIssues:
		return fmt.Sprintf("🟠 %s issue #%d in %s: %q at %s", capitalize(e.Action), e.Number, e.Repo, e.Title, at)
	case model.KindPullRequest:
		return fmt.Sprintf("🔵 %s pull request #%d in %s: %q at %s", capitalize(e.Action), e.Number, e.Repo, e.Title, at)
	case model.KindIssueComment:
		return fmt.Sprintf("💬 Commented on issue #%d in %s: %q at %s", e.Number, e.Repo, preview(e.Body), at)
	case model.KindWatch:
		return fmt.Sprintf("⭐ Starred %s at %s", e.Repo, at)
	case model.KindFork:
		return fmt.Sprintf("🍴 Forked %s to %s at %s", e.Repo, e.Forkee, at)
	default:
		return fmt.Sprintf("• %s in %s at %s", e.Type, e.Repo, at)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// preview flattens a comment body to one line and cuts it to commentPreview runes.
func preview(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(body) <= commentPreview {
		return body
	}
	return string([]rune(body)[:commentPreview]) + "..."
}
