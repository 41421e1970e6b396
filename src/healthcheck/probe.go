package healthcheck

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Prober checks whether an HTTP entry point is reachable.
type Prober interface {
	Check(ctx context.Context, url string) error
}

// HTTPProber performs a single GET per check. Server errors count as
// unreachable; any page the application serves counts as reachable.
type HTTPProber struct {
	Client *http.Client
}

func NewHTTP() *HTTPProber {
	return &HTTPProber{Client: &http.Client{Timeout: 10 * time.Second}}
}

func (p *HTTPProber) Check(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%s: status %d", url, resp.StatusCode)
	}
	return nil
}

// FakeProber is scripted: it fails the first FailuresBeforeOK checks, then
// succeeds, unless Err is set, in which case it always fails.
type FakeProber struct {
	FailuresBeforeOK int
	Err              error
	Calls            int
}

func (f *FakeProber) Check(ctx context.Context, url string) error {
	f.Calls++
	if f.Err != nil {
		return f.Err
	}
	if f.Calls <= f.FailuresBeforeOK {
		return fmt.Errorf("fake probe: %s not reachable yet (attempt %d)", url, f.Calls)
	}
	return nil
}
