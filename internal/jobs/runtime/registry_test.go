package runtime

import (
	"context"
	"testing"
)

type fakeHandler struct {
	jobType string
}

func (h *fakeHandler) Type() string                          { return h.jobType }
func (h *fakeHandler) Run(ctx context.Context, job Job) error { return nil }

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeHandler{jobType: "a"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, ok := r.Get("a"); !ok {
		t.Fatalf("handler not found after registration")
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatalf("unregistered type resolved")
	}
}

func TestRegistry_RejectsDuplicatesAndInvalid(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeHandler{jobType: "a"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&fakeHandler{jobType: "a"}); err == nil {
		t.Fatalf("duplicate registration accepted")
	}
	if err := r.Register(nil); err == nil {
		t.Fatalf("nil handler accepted")
	}
	if err := r.Register(&fakeHandler{}); err == nil {
		t.Fatalf("empty type accepted")
	}
}

func TestNewJob_AssignsIDs(t *testing.T) {
	a := NewJob("t", map[string]string{"k": "v"})
	b := NewJob("t", nil)
	if a.ID == b.ID {
		t.Fatalf("job ids collide")
	}
	if a.Type != "t" || a.Payload["k"] != "v" {
		t.Fatalf("job = %+v", a)
	}
}
