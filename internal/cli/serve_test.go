package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"
)

type fakeSource struct {
	errs  []error
	calls int
}

func (f *fakeSource) Reload(context.Context) error {
	err := f.errs[f.calls]
	f.calls++
	return err
}

func TestReloaderCountsFailures(t *testing.T) {
	broken := stderrors.New("policies directory missing")
	src := &fakeSource{errs: []error{broken, broken, nil, nil}}

	var buf bytes.Buffer
	r := &reloader{source: src, logger: newLogger(&buf, LogInfo)}
	ctx := context.Background()

	r.onChange(ctx, []string{"policies/shenzhen"})
	r.onChange(ctx, []string{"policies/shenzhen/a.yaml"})
	if r.failures != 2 {
		t.Errorf("failures = %d, want 2", r.failures)
	}
	if !strings.Contains(buf.String(), "failed_reloads=2") {
		t.Errorf("expected the failure count in the log, got %q", buf.String())
	}

	buf.Reset()
	r.onChange(ctx, []string{"policies/shenzhen/a.yaml"})
	if r.failures != 0 {
		t.Errorf("failures = %d, want reset after a good reload", r.failures)
	}
	if !strings.Contains(buf.String(), "Reload recovered") {
		t.Errorf("expected a recovery message, got %q", buf.String())
	}

	buf.Reset()
	r.onChange(ctx, []string{"parks/p.yaml"})
	if buf.Len() != 0 {
		t.Errorf("a clean reload after a clean reload should log nothing at info, got %q", buf.String())
	}
	if src.calls != 4 {
		t.Errorf("Reload called %d times, want 4", src.calls)
	}
}
