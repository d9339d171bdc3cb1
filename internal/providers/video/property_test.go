package video

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"animator/internal/domain"
	"animator/internal/providers/genai"
	"animator/internal/storage"
)

func TestAwaitResultProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		pendingPolls := rapid.IntRange(0, 8).Draw(rt, "pending")
		ending := rapid.SampledFrom([]string{"ok", "error", "missing"}).Draw(rt, "ending")
		name := rapid.StringMatching(`operations/[a-z0-9]{1,12}`).Draw(rt, "name")

		backend := &fakeBackend{hasKey: true, created: pending(name), video: []byte("v")}
		for i := 0; i < pendingPolls; i++ {
			backend.polls = append(backend.polls, pending(name))
		}
		switch ending {
		case "ok":
			backend.polls = append(backend.polls, finished(name, "https://x/"+name))
		case "error":
			backend.polls = append(backend.polls, &genai.Operation{
				Name:  name,
				Done:  rapid.Bool().Draw(rt, "errorDone"),
				Error: &genai.OperationError{Message: "boom"},
			})
		case "missing":
			backend.polls = append(backend.polls, finished(name, ""))
		}

		animator, err := NewAnimator(Options{Backend: backend, Publisher: storage.NewBlobStore(0)})
		if err != nil {
			rt.Fatalf("NewAnimator: %v", err)
		}
		animator.wait = func(context.Context, time.Duration) error {
			backend.events = append(backend.events, "wait")
			return nil
		}

		handle, err := animator.Submit(context.Background(), catPNG)
		if err != nil {
			rt.Fatalf("Submit: %v", err)
		}
		_, err = animator.AwaitResult(context.Background(), handle)

		if got := backend.count("get"); got != pendingPolls+1 {
			rt.Fatalf("status queries = %d, want %d", got, pendingPolls+1)
		}
		for i, e := range backend.events {
			if e == "get" && (i == 0 || backend.events[i-1] != "wait") {
				rt.Fatalf("query without preceding wait: %v", backend.events)
			}
		}
		for _, q := range backend.queried {
			if q != name {
				rt.Fatalf("queried %q, want handle %q", q, name)
			}
		}

		downloads := backend.count("download")
		switch ending {
		case "ok":
			if err != nil || downloads != 1 {
				rt.Fatalf("ok ending: err=%v downloads=%d", err, downloads)
			}
		case "error":
			if !errors.Is(err, domain.ErrGeneration) || downloads != 0 {
				rt.Fatalf("error ending: err=%v downloads=%d", err, downloads)
			}
		case "missing":
			if !errors.Is(err, domain.ErrMissingResult) || downloads != 0 {
				rt.Fatalf("missing ending: err=%v downloads=%d", err, downloads)
			}
		}
	})
}

func TestClassifyMessageProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		prefix := rapid.StringMatching(`[a-z ]{0,16}`).Draw(rt, "prefix")
		suffix := rapid.StringMatching(`[a-z ]{0,16}`).Draw(rt, "suffix")

		quotaToken := rapid.SampledFrom([]string{"RESOURCE_EXHAUSTED", "429"}).Draw(rt, "quota")
		if kind, _ := ClassifyMessage(prefix + quotaToken + suffix); kind != KindQuota {
			rt.Fatalf("quota token not classified as quota")
		}

		var key strings.Builder
		for _, r := range "api key" {
			if rapid.Bool().Draw(rt, "upper") {
				key.WriteString(strings.ToUpper(string(r)))
			} else {
				key.WriteRune(r)
			}
		}
		if kind, _ := ClassifyMessage(prefix + key.String() + suffix); kind != KindCredential {
			rt.Fatalf("%q not classified as credential", prefix+key.String()+suffix)
		}

		word := rapid.StringMatching(`[a-z]{0,24}`).Draw(rt, "word")
		if kind, msg := ClassifyMessage(word); kind != KindGeneric || msg != GenericMessage {
			rt.Fatalf("%q not classified as generic", word)
		}
	})
}
