package session

import (
	"errors"
	"testing"

	"TimeTracker/internal/domain"
)

func TestRegistryLifecycle(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	s := reg.Create("Chithra", false, now)
	if s.Token == "" || s.Presenter.Employee() != "Chithra" {
		t.Fatalf("unexpected session: %+v", s)
	}

	got, err := reg.Get(s.Token)
	if err != nil || got != s {
		t.Fatalf("expected same session, got %v %v", got, err)
	}

	other := reg.Create("Chithra", false, now)
	if other.Token == s.Token || reg.Len() != 2 {
		t.Fatalf("expected two independent sessions")
	}

	reg.Delete(s.Token)
	if _, err := reg.Get(s.Token); !errors.Is(err, domain.ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
}
