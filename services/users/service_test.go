package users_test

import (
	"errors"
	"testing"

	"reelhouse/services/users"
)

func newService(t *testing.T) *users.Service {
	t.Helper()
	svc, err := users.NewService(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func TestCreateAndAuthenticate(t *testing.T) {
	svc := newService(t)

	user, err := svc.Create("Alice", "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if user.ID == "" {
		t.Fatal("expected generated id")
	}

	// Identifier matching is case-insensitive, for username and email.
	for _, identifier := range []string{"Alice", "alice", "ALICE@EXAMPLE.COM"} {
		got, err := svc.Authenticate(identifier, "hunter22")
		if err != nil {
			t.Fatalf("authenticate %q failed: %v", identifier, err)
		}
		if got.ID != user.ID {
			t.Fatalf("authenticate %q resolved wrong account", identifier)
		}
	}
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	svc := newService(t)
	if _, err := svc.Create("alice", "", "hunter22"); err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	_, wrongPassword := svc.Authenticate("alice", "nope")
	_, unknownUser := svc.Authenticate("bob", "hunter22")

	if !errors.Is(wrongPassword, users.ErrBadCredentials) || !errors.Is(unknownUser, users.ErrBadCredentials) {
		t.Fatalf("both failures must be ErrBadCredentials, got %v / %v", wrongPassword, unknownUser)
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Fatal("failure messages must not reveal which part was wrong")
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newService(t)

	if _, err := svc.Create("", "", "hunter22"); !errors.Is(err, users.ErrUsernameRequired) {
		t.Fatalf("expected ErrUsernameRequired, got %v", err)
	}
	if _, err := svc.Create("alice", "", ""); !errors.Is(err, users.ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
	if _, err := svc.Create("alice", "", "short"); !errors.Is(err, users.ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}

	if _, err := svc.Create("alice", "", "hunter22"); err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if _, err := svc.Create("ALICE", "", "hunter22"); !errors.Is(err, users.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken for case variant, got %v", err)
	}
}

func TestSetPassword(t *testing.T) {
	svc := newService(t)
	user, err := svc.Create("alice", "", "hunter22")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	if _, err := svc.SetPassword(user.ID, "newsecret"); err != nil {
		t.Fatalf("set password returned error: %v", err)
	}
	if _, err := svc.Authenticate("alice", "hunter22"); !errors.Is(err, users.ErrBadCredentials) {
		t.Fatal("old password must stop working")
	}
	if _, err := svc.Authenticate("alice", "newsecret"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestDeleteKeepsLastAccount(t *testing.T) {
	svc := newService(t)
	alice, err := svc.Create("alice", "", "hunter22")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	if err := svc.Delete(alice.ID); err == nil {
		t.Fatal("deleting the last account must fail")
	}

	bob, err := svc.Create("bob", "", "hunter22")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if err := svc.Delete(bob.ID); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if svc.Exists(bob.ID) {
		t.Fatal("deleted account still exists")
	}
}

func TestPersistenceAcrossReload(t *testing.T) {
	dir := t.TempDir()
	svc, err := users.NewService(dir)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	user, err := svc.Create("alice", "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	reloaded, err := users.NewService(dir)
	if err != nil {
		t.Fatalf("failed to reload service: %v", err)
	}
	if got, ok := reloaded.Get(user.ID); !ok || got.Username != "alice" {
		t.Fatalf("account not persisted: ok=%v user=%+v", ok, got)
	}
	if _, err := reloaded.Authenticate("alice", "hunter22"); err != nil {
		t.Fatalf("hash not persisted: %v", err)
	}
}
