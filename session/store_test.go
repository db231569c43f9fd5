package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/veylan/authgate/permission"
)

func TestSetCredentialRejectsPartialPair(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	for _, cred := range []Credential{
		{},
		{AccessToken: "acc"},
		{RefreshToken: "ref"},
	} {
		if err := s.SetCredential(ctx, cred); !errors.Is(err, ErrPartialCredential) {
			t.Fatalf("expected ErrPartialCredential for %+v, got %v", cred, err)
		}
	}
	if s.LoggedIn() {
		t.Fatal("rejected pairs must not establish a session")
	}
}

func TestCredentialPairNeverTears(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	const writers = 8
	const rounds = 200

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				tag := fmt.Sprintf("%d-%d", w, i)
				err := s.SetCredential(ctx, Credential{
					AccessToken:  "acc-" + tag,
					RefreshToken: "ref-" + tag,
				})
				if err != nil {
					t.Errorf("SetCredential: %v", err)
					return
				}
			}
		}(w)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		cred, ok := s.Credential()
		if !ok {
			continue
		}
		// Both halves must come from the same write.
		if cred.AccessToken[len("acc-"):] != cred.RefreshToken[len("ref-"):] {
			t.Fatalf("torn pair observed: %+v", cred)
		}
	}
}

func TestClearIsIdempotentAndDropsIdentity(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	if err := s.SetCredential(ctx, Credential{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("SetCredential: %v", err)
	}
	s.SetIdentity(permission.Identity{ID: "u-1"})

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s.LoggedIn() {
		t.Fatal("expected logged-out state after clear")
	}
	if _, ok := s.Identity(); ok {
		t.Fatal("identity must not survive clear")
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

type flakyStorage struct {
	Memory
	failStore bool
	failClear bool
}

func (f *flakyStorage) Store(ctx context.Context, cred Credential) error {
	if f.failStore {
		return errors.New("backend down")
	}
	return f.Memory.Store(ctx, cred)
}

func (f *flakyStorage) Clear(ctx context.Context) error {
	if f.failClear {
		return errors.New("backend down")
	}
	return f.Memory.Clear(ctx)
}

func TestStorageFailureKeepsLiveSessionUsable(t *testing.T) {
	storage := &flakyStorage{failStore: true, failClear: true}
	s := NewStore(storage)
	ctx := context.Background()

	err := s.SetCredential(ctx, Credential{AccessToken: "a", RefreshToken: "r"})
	if err == nil {
		t.Fatal("expected storage error to surface")
	}
	if got := s.AccessToken(); got != "a" {
		t.Fatalf("in-memory pair must be updated despite storage failure, got %q", got)
	}

	if err := s.Clear(ctx); err == nil {
		t.Fatal("expected storage error from Clear")
	}
	if s.LoggedIn() {
		t.Fatal("memory must be cleared even when the backend delete fails")
	}
}

func TestHydrateRestoresPersistedPair(t *testing.T) {
	storage := NewMemory()
	ctx := context.Background()
	if err := storage.Store(ctx, Credential{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("seed storage: %v", err)
	}

	s := NewStore(storage)
	if s.LoggedIn() {
		t.Fatal("store must start empty before hydration")
	}
	if err := s.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	cred, ok := s.Credential()
	if !ok || cred.AccessToken != "a" || cred.RefreshToken != "r" {
		t.Fatalf("unexpected hydrated credential: %+v ok=%v", cred, ok)
	}
}

func TestHydrateWithEmptyStorageIsNoop(t *testing.T) {
	s := NewStore(nil)
	if err := s.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if s.LoggedIn() {
		t.Fatal("empty storage must hydrate to logged-out state")
	}
}
