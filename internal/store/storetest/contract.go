// Package storetest holds the behaviour every store.Store adapter must
// share. Adapters call Run from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formembed/internal/store"
	"github.com/goliatone/go-formembed/pkg/model"
	"github.com/goliatone/go-formembed/pkg/testsupport"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) store.Store

// Run exercises the adapter returned by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("forms round trip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		survey := testsupport.SurveyForm()
		draft := testsupport.ContactForm()
		draft.ID = "draft"
		draft.Published = false

		require.NoError(t, s.Forms().Put(ctx, survey))
		require.NoError(t, s.Forms().Put(ctx, draft))

		got, err := s.Forms().Get(ctx, survey.ID)
		require.NoError(t, err)
		assert.Equal(t, survey, got)

		got, err = s.Forms().Get(ctx, "draft")
		require.NoError(t, err)
		assert.False(t, got.Published, "published flag must survive storage")

		all, err := s.Forms().List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, survey.ID, all[0].ID)
		assert.Equal(t, "draft", all[1].ID)
	})

	t.Run("put replaces", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		def := testsupport.ContactForm()
		require.NoError(t, s.Forms().Put(ctx, def))
		def.Title = "Updated"
		require.NoError(t, s.Forms().Put(ctx, def))

		got, err := s.Forms().Get(ctx, def.ID)
		require.NoError(t, err)
		assert.Equal(t, "Updated", got.Title)
	})

	t.Run("missing form", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Forms().Get(ctx, "nope")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, s.Forms().Delete(ctx, "nope"), store.ErrNotFound)
		assert.Error(t, s.Forms().Put(ctx, model.FormDefinition{}))
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Forms().Put(ctx, testsupport.ContactForm()))
		require.NoError(t, s.Forms().Delete(ctx, testsupport.ContactFormID))
		_, err := s.Forms().Get(ctx, testsupport.ContactFormID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("submissions by form in order", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		subs := []model.Submission{
			{ID: "s2", FormID: "f1", Values: map[string]any{"name": "Grace"}, CreatedAt: base.Add(time.Minute)},
			{ID: "s1", FormID: "f1", Values: map[string]any{"name": "Ada"}, CreatedAt: base},
			{ID: "s3", FormID: "other", Values: map[string]any{"ok": true}, CreatedAt: base},
		}
		for _, sub := range subs {
			require.NoError(t, s.Submissions().Save(ctx, sub))
		}

		got, err := s.Submissions().ListByForm(ctx, "f1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "s1", got[0].ID)
		assert.Equal(t, map[string]any{"name": "Ada"}, got[0].Values)
		assert.True(t, got[0].CreatedAt.Equal(base))
		assert.Equal(t, "s2", got[1].ID)

		none, err := s.Submissions().ListByForm(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, none)

		assert.Error(t, s.Submissions().Save(ctx, model.Submission{FormID: "f1"}))
	})
}
