package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// WithIdentity creates an identity and runs attach with its id.
//
// If attach fails the identity is deleted so no credential is left without
// a profile. When the deletion fails as well a *CompensationError carrying
// both errors is returned.
func WithIdentity(ctx context.Context, idp IdentityProvider, in NewIdentity, attach func(ctx context.Context, id uuid.UUID) error) (uuid.UUID, error) {
	id, err := idp.CreateIdentity(ctx, in)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create identity: %w", err)
	}

	if err := attach(ctx, id); err != nil {
		if delErr := idp.DeleteIdentity(ctx, id); delErr != nil {
			return uuid.Nil, &CompensationError{IdentityID: id, Cause: err, Cleanup: delErr}
		}
		return uuid.Nil, err
	}

	return id, nil
}
