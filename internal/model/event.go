package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrUnknownFilter  = errors.New("unknown filter")
)

// RawEvent is one record of GET /users/{username}/events.
type RawEvent struct {
	ID string `json:"id"`

	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
	Repo      struct {
		Name string `json:"name"`
	} `json:"repo"`
	Actor struct {
		Login string `json:"login"`
	} `json:"actor"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Kind string

const (
	KindPush         Kind = "push"
	KindIssues       Kind = "issues"
	KindPullRequest  Kind = "pullrequest"
	KindIssueComment Kind = "issuecomment"
	KindWatch        Kind = "watch"
	KindFork         Kind = "fork"
	KindOther        Kind = "other"
)

var apiTypes = map[string]Kind{
	"PushEvent":         KindPush,
	"IssuesEvent":       KindIssues,
	"PullRequestEvent":  KindPullRequest,
	"IssueCommentEvent": KindIssueComment,
	"WatchEvent":        KindWatch,
	"ForkEvent":         KindFork,
}

// KindOf maps an API type string such as "PushEvent" to its Kind.
func KindOf(apiType string) Kind {
	if k, ok := apiTypes[apiType]; ok {
		return k
	}
	return KindOther
}

// Event is a classified RawEvent. Only the fields of its Kind are populated.
type Event struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Type      string    `json:"type"`
	Actor     string    `json:"actor"`
	Repo      string    `json:"repo"`
	CreatedAt time.Time `json:"created_at"`

	Commits int    `json:"commits,omitempty"`
	Ref     string `json:"ref,omitempty"`
	Action  string `json:"action,omitempty"`
	Number  int    `json:"number,omitempty"`
	Title   string `json:"title,omitempty"`
	Body    string `json:"body,omitempty"`
	Forkee  string `json:"forkee,omitempty"`
}

// Filter selects one Kind. The zero value, All, selects every event.
type Filter Kind

const All Filter = ""

var filterNouns = map[Filter]string{
	Filter(KindPush):         "push",
	Filter(KindIssues):       "issues",
	Filter(KindPullRequest):  "pull request",
	Filter(KindIssueComment): "issue comment",
	Filter(KindWatch):        "watch/star",
	Filter(KindFork):         "fork",
}

// ParseFilter accepts "all" or one of the named kinds, case-insensitively.
func ParseFilter(word string) (Filter, error) {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" || w == "all" {
		return All, nil
	}
	f := Filter(w)
	if _, ok := filterNouns[f]; !ok {
		return All, fmt.Errorf("%w: %s", ErrUnknownFilter, word)
	}
	return f, nil
}

func (f Filter) Match(k Kind) bool {
	if f == All {
		return true
	}
	return k != KindOther && Kind(f) == k
}

// Noun is the phrase used in "No <noun> activity found".
func (f Filter) Noun() string {
	if f == All {
		return "recent"
	}
	return filterNouns[f]
}
