package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type fakeIdentities struct {
	created   []uuid.UUID
	deleted   []uuid.UUID
	createErr error
	deleteErr error
}

func (f *fakeIdentities) EmailExists(context.Context, string) (bool, error) { return false, nil }

func (f *fakeIdentities) CreateIdentity(context.Context, NewIdentity) (uuid.UUID, error) {
	if f.createErr != nil {
		return uuid.Nil, f.createErr
	}
	id := uuid.New()
	f.created = append(f.created, id)
	return id, nil
}

func (f *fakeIdentities) DeleteIdentity(_ context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func TestWithIdentity(t *testing.T) {
	ctx := context.Background()
	in := NewIdentity{Email: "a@b.co", Password: "x", FullName: "A", Username: "a"}

	t.Run("attach succeeds", func(t *testing.T) {
		idp := &fakeIdentities{}
		var attached uuid.UUID
		id, err := WithIdentity(ctx, idp, in, func(_ context.Context, id uuid.UUID) error {
			attached = id
			return nil
		})
		if err != nil {
			t.Fatalf("WithIdentity: %v", err)
		}
		if id != attached || id == uuid.Nil {
			t.Errorf("id = %s, attached = %s", id, attached)
		}
		if len(idp.deleted) != 0 {
			t.Errorf("deleted = %v, want none", idp.deleted)
		}
	})

	t.Run("create fails", func(t *testing.T) {
		boom := errors.New("auth down")
		idp := &fakeIdentities{createErr: boom}
		called := false
		_, err := WithIdentity(ctx, idp, in, func(context.Context, uuid.UUID) error {
			called = true
			return nil
		})
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want %v", err, boom)
		}
		if called {
			t.Error("attach ran without an identity")
		}
	})

	t.Run("attach fails and identity is removed", func(t *testing.T) {
		boom := errors.New("insert profile failed")
		idp := &fakeIdentities{}
		_, err := WithIdentity(ctx, idp, in, func(context.Context, uuid.UUID) error { return boom })
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want %v", err, boom)
		}
		var ce *CompensationError
		if errors.As(err, &ce) {
			t.Error("got CompensationError for a successful cleanup")
		}
		if len(idp.deleted) != 1 || idp.deleted[0] != idp.created[0] {
			t.Errorf("deleted = %v, created = %v", idp.deleted, idp.created)
		}
	})

	t.Run("cleanup fails too", func(t *testing.T) {
		boom := errors.New("insert profile failed")
		cleanup := errors.New("delete identity failed")
		idp := &fakeIdentities{deleteErr: cleanup}
		_, err := WithIdentity(ctx, idp, in, func(context.Context, uuid.UUID) error { return boom })

		var ce *CompensationError
		if !errors.As(err, &ce) {
			t.Fatalf("err = %v, want CompensationError", err)
		}
		if ce.IdentityID != idp.created[0] {
			t.Errorf("IdentityID = %s, want %s", ce.IdentityID, idp.created[0])
		}
		if !errors.Is(err, boom) || !errors.Is(err, cleanup) {
			t.Errorf("err %v must wrap both causes", err)
		}
	})
}
