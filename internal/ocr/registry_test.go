package ocr

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven/mocks"
)

func TestRegistry_RegisterAndList(t *testing.T) {
	r := NewRegistry(nil)

	b := mocks.NewMockOcrBackend("tesseract")
	if err := r.Register(b); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !b.Initialized() {
		t.Error("expected backend to be initialized on register")
	}
	if err := r.Register(mocks.NewMockOcrBackend("easyocr")); err != nil {
		t.Fatal(err)
	}

	names := r.List()
	if len(names) != 2 || names[0] != "easyocr" || names[1] != "tesseract" {
		t.Errorf("expected sorted names, got %v", names)
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(mocks.NewMockOcrBackend("dup")); err != nil {
		t.Fatal(err)
	}

	err := r.Register(mocks.NewMockOcrBackend("dup"))
	if !errors.Is(err, domain.ErrPlugin) {
		t.Errorf("expected plugin error for duplicate, got %v", err)
	}
}

func TestRegistry_UnregisterFreesName(t *testing.T) {
	r := NewRegistry(nil)
	first := mocks.NewMockOcrBackend("reuse")
	if err := r.Register(first); err != nil {
		t.Fatal(err)
	}
	if err := r.Unregister("reuse"); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if !first.IsShutdown() {
		t.Error("expected shutdown on unregister")
	}
	if err := r.Register(mocks.NewMockOcrBackend("reuse")); err != nil {
		t.Errorf("expected name to be free after unregister: %v", err)
	}
	if err := r.Unregister("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry(nil)
	a, b := mocks.NewMockOcrBackend("a"), mocks.NewMockOcrBackend("b")
	_ = r.Register(a)
	_ = r.Register(b)

	r.Clear()

	if len(r.List()) != 0 {
		t.Errorf("expected empty list after clear, got %v", r.List())
	}
	if !a.IsShutdown() || !b.IsShutdown() {
		t.Error("expected all backends shut down")
	}
}

func TestRegistry_InvalidNames(t *testing.T) {
	r := NewRegistry(nil)
	for _, name := range []string{"", " tess", "tess ract", "a/b", "-lead", "tab\tname"} {
		t.Run(name, func(t *testing.T) {
			if err := r.Register(mocks.NewMockOcrBackend(name)); !errors.Is(err, domain.ErrPlugin) {
				t.Errorf("expected plugin error for %q, got %v", name, err)
			}
		})
	}
	for _, name := range []string{"tesseract", "paddle_ocr", "v1.2-beta"} {
		if err := ValidateName(name); err != nil {
			t.Errorf("expected %q to be valid: %v", name, err)
		}
	}
}

func TestRegistry_InitializeFailure(t *testing.T) {
	r := NewRegistry(nil)
	b := mocks.NewMockOcrBackend("broken")
	b.InitializeErr = errors.New("no engine")

	if err := r.Register(b); !errors.Is(err, domain.ErrPlugin) {
		t.Errorf("expected plugin error, got %v", err)
	}
	if len(r.List()) != 0 {
		t.Error("failed backend must not be registered")
	}
}

func TestRegistry_Invoke(t *testing.T) {
	r := NewRegistry(nil)
	b := mocks.NewMockOcrBackend("ok")
	b.ProcessFn = func(ctx context.Context, image []byte, req driven.OcrRequest) (*driven.OcrRawResult, error) {
		return &driven.OcrRawResult{Content: "text in " + req.Language}, nil
	}
	_ = r.Register(b)

	res, err := r.Invoke(context.Background(), "ok", []byte{1}, driven.OcrRequest{Language: "eng"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if res.Content != "text in eng" {
		t.Errorf("unexpected content %q", res.Content)
	}

	_, err = r.Invoke(context.Background(), "absent", nil, driven.OcrRequest{})
	if !errors.Is(err, domain.ErrMissingDependency) {
		t.Errorf("expected missing dependency for unknown backend, got %v", err)
	}
}

func TestRegistry_InvokeErrors(t *testing.T) {
	r := NewRegistry(nil)

	failing := mocks.NewMockOcrBackend("failing")
	failing.ProcessFn = func(context.Context, []byte, driven.OcrRequest) (*driven.OcrRawResult, error) {
		return nil, errors.New("engine crashed")
	}
	missing := mocks.NewMockOcrBackend("missing")
	missing.ProcessFn = func(context.Context, []byte, driven.OcrRequest) (*driven.OcrRawResult, error) {
		return nil, domain.NewMissingDependencyError("tesseract", "not installed")
	}
	panicky := mocks.NewMockOcrBackend("panicky")
	panicky.ProcessFn = func(context.Context, []byte, driven.OcrRequest) (*driven.OcrRawResult, error) {
		panic("boom")
	}
	for _, b := range []*mocks.MockOcrBackend{failing, missing, panicky} {
		if err := r.Register(b); err != nil {
			t.Fatal(err)
		}
	}

	_, err := r.Invoke(context.Background(), "failing", nil, driven.OcrRequest{})
	if !errors.Is(err, domain.ErrOCR) {
		t.Errorf("expected ocr error, got %v", err)
	}

	_, err = r.Invoke(context.Background(), "missing", nil, driven.OcrRequest{})
	if !errors.Is(err, domain.ErrMissingDependency) {
		t.Errorf("expected missing dependency to pass through, got %v", err)
	}

	_, err = r.Invoke(context.Background(), "panicky", nil, driven.OcrRequest{})
	if !errors.Is(err, domain.ErrOCR) || !errors.Is(err, domain.ErrPanic) {
		t.Errorf("expected ocr error wrapping panic, got %v", err)
	}
}

func TestRegistry_InvokeCancelled(t *testing.T) {
	r := NewRegistry(nil)
	_ = r.Register(mocks.NewMockOcrBackend("ok"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Invoke(ctx, "ok", nil, driven.OcrRequest{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context canceled, got %v", err)
	}
}

func TestRegistry_ConcurrentInvoke(t *testing.T) {
	r := NewRegistry(nil)
	b := mocks.NewMockOcrBackend("shared")
	_ = r.Register(b)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Invoke(context.Background(), "shared", nil, driven.OcrRequest{})
			_ = r.List()
		}()
	}
	wg.Wait()

	if b.Processed() != 20 {
		t.Errorf("expected 20 calls, got %d", b.Processed())
	}
}
