package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratemyfit/model"
)

func TestStateRoundTrip(t *testing.T) {
	signer := NewStateSigner("test-secret")

	state, err := signer.Issue(model.ProviderGoogle)
	require.NoError(t, err)
	require.NotEmpty(t, state)

	got, err := signer.Verify(state)
	require.NoError(t, err)
	assert.Equal(t, model.ProviderGoogle, got)
}

func TestStateRejectsOtherSigner(t *testing.T) {
	state, err := NewStateSigner("secret-a").Issue(model.ProviderGitHub)
	require.NoError(t, err)

	_, err = NewStateSigner("secret-b").Verify(state)
	assert.Error(t, err, "a state signed with another secret must not verify")
}

func TestStateRejectsGarbage(t *testing.T) {
	signer := NewStateSigner("test-secret")

	_, err := signer.Verify("not-a-token")
	assert.Error(t, err)

	_, err = signer.Verify("")
	assert.Error(t, err)
}

func TestStateCarriesProvider(t *testing.T) {
	signer := NewStateSigner("test-secret")

	state, err := signer.Issue(model.ProviderGitHub)
	require.NoError(t, err)

	got, err := signer.Verify(state)
	require.NoError(t, err)
	assert.Equal(t, model.ProviderGitHub, got, "the callback must match the provider the redirect was issued for")
}
