package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDefaults(t *testing.T) {
	ee := Newf("something broke").Build()

	assert.Equal(t, ComponentUnknown, ee.Component)
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.Equal(t, "something broke", ee.Error())
	assert.False(t, ee.Timestamp.IsZero())
}

func TestBuilderMetadata(t *testing.T) {
	ee := Newf("no cost center selected").
		Component("reconcile").
		Category(CategoryValidation).
		Context("plant", 3).
		Build()

	assert.Equal(t, "reconcile", ee.Component)
	assert.Equal(t, CategoryValidation, ee.Category)
	assert.Equal(t, 3, ee.GetContext()["plant"])
}

func TestContextCopyIsIsolated(t *testing.T) {
	ee := Newf("boom").Context("key", "original").Build()

	ctx := ee.GetContext()
	ctx["key"] = "mutated"

	assert.Equal(t, "original", ee.GetContext()["key"])
}

func TestCategoryMatchingViaIs(t *testing.T) {
	a := Newf("first").Category(CategorySync).Build()
	b := Newf("second").Category(CategorySync).Build()
	c := Newf("third").Category(CategoryDatabase).Build()

	assert.True(t, Is(a, b))
	assert.False(t, Is(a, c))
}

func TestUnwrapPreservesSentinel(t *testing.T) {
	sentinel := NewStd("sentinel")
	wrapped := New(fmt.Errorf("outer: %w", sentinel)).Category(CategoryState).Build()

	require.ErrorIs(t, wrapped, sentinel)
}
