package events

import (
	"fmt"
	"time"

	"githubActivity/internal/model"

	json "github.com/goccy/go-json"
)

type payload struct {
	Size    *int              `json:"size"`
	Ref     string            `json:"ref"`
	Commits []json.RawMessage `json:"commits"`
	Action  string            `json:"action"`
	Issue   *struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
	} `json:"issue"`
	PullRequest *struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
	} `json:"pull_request"`
	Comment *struct {
		Body string `json:"body"`
	} `json:"comment"`
	Forkee *struct {
		FullName string `json:"full_name"`
	} `json:"forkee"`
}

func malformed(raw *model.RawEvent, why string) error {
	return fmt.Errorf("%w: %s %q: %s", model.ErrMalformedEvent, raw.Type, raw.ID, why)
}

// Classify maps an API record onto the Kind enumeration and extracts the
// payload fields that Kind needs. Unknown types classify as KindOther.
func Classify(raw *model.RawEvent) (model.Event, error) {
	if raw.Type == "" {
		return model.Event{}, malformed(raw, "missing type")
	}
	if raw.Repo.Name == "" {
		return model.Event{}, malformed(raw, "missing repo name")
	}
	created, err := time.Parse(time.RFC3339, raw.CreatedAt)
	if err != nil {
		return model.Event{}, malformed(raw, "bad created_at")
	}

	e := model.Event{
		ID:        raw.ID,
		Kind:      model.KindOf(raw.Type),
		Type:      raw.Type,
		Actor:     raw.Actor.Login,
		Repo:      raw.Repo.Name,
		CreatedAt: created.UTC(),
	}
	if e.Kind == model.KindWatch || e.Kind == model.KindOther {
		return e, nil
	}

	var p payload
	if len(raw.Payload) == 0 {
		return model.Event{}, malformed(raw, "missing payload")
	}
	if err := json.Unmarshal(raw.Payload, &p); err != nil {
		return model.Event{}, malformed(raw, "undecodable payload")
	}

	switch e.Kind {
	case model.KindPush:
		// newer payloads carry only ref and head, the count stays zero
		switch {
		case p.Size != nil:
			e.Commits = *p.Size
		case p.Commits != nil:
			e.Commits = len(p.Commits)
		}
		e.Ref = p.Ref
	case model.KindIssues:
		if p.Issue == nil || p.Action == "" {
			return model.Event{}, malformed(raw, "issue missing")
		}
		e.Action, e.Number, e.Title = p.Action, p.Issue.Number, p.Issue.Title
	case model.KindPullRequest:
		if p.PullRequest == nil || p.Action == "" {
			return model.Event{}, malformed(raw, "pull request missing")
		}
		e.Action, e.Number, e.Title = p.Action, p.PullRequest.Number, p.PullRequest.Title
	case model.KindIssueComment:
		if p.Issue == nil || p.Comment == nil {
			return model.Event{}, malformed(raw, "comment missing")
		}
		e.Number, e.Body = p.Issue.Number, p.Comment.Body
	case model.KindFork:
		if p.Forkee == nil || p.Forkee.FullName == "" {
			return model.Event{}, malformed(raw, "forkee missing")
		}
		e.Forkee = p.Forkee.FullName
	}
	return e, nil
}

// ClassifyAll classifies every record, keeping API order. Malformed records
// are returned separately so callers can report them without failing.
func ClassifyAll(raws []model.RawEvent) (events []model.Event, skipped []error) {
	events = make([]model.Event, 0, len(raws))
	for i := range raws {
		e, err := Classify(&raws[i])
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		events = append(events, e)
	}
	return events, skipped
}

// Filter returns the events matching f, in their original order.
func Filter(evs []model.Event, f model.Filter) []model.Event {
	if f == model.All {
		return evs
	}
	out := make([]model.Event, 0, len(evs))
	for _, e := range evs {
		if f.Match(e.Kind) {
			out = append(out, e)
		}
	}
	return out
}
