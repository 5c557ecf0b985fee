package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formembed/internal/store"
	"github.com/goliatone/go-formembed/internal/store/memory"
	"github.com/goliatone/go-formembed/internal/store/storetest"
	"github.com/goliatone/go-formembed/pkg/testsupport"
)

func TestMemoryStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return memory.New() })
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	require.NoError(t, s.Forms().Put(ctx, testsupport.ContactForm()))

	got, err := s.Forms().Get(ctx, testsupport.ContactFormID)
	require.NoError(t, err)
	got.Fields[0].Label = "mutated"

	again, err := s.Forms().Get(ctx, testsupport.ContactFormID)
	require.NoError(t, err)
	assert.Equal(t, "Name", again.Fields[0].Label)
}
