package llm

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// Observer receives one sample per Generate call.
type Observer interface {
	ObserveLLM(provider, status string, d time.Duration)
}

type instrumented struct {
	next Generator
	obs  Observer
}

// Instrument reports latency and outcome of every call to obs.
func Instrument(g Generator, obs Observer) Generator {
	if g == nil || obs == nil {
		return g
	}
	return &instrumented{next: g, obs: obs}
}

func (i *instrumented) Name() string { return i.next.Name() }

func (i *instrumented) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := i.next.Generate(ctx, prompt)
	i.obs.ObserveLLM(i.next.Name(), outcome(err), time.Since(start))
	return out, err
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return strconv.Itoa(httpErr.StatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout"
	}
	return "error"
}
