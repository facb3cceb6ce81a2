package quic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lejla94/lxp2p/internal/core/identity"
	"github.com/Lejla94/lxp2p/pkg/types"
)

func TestVerifyPeerCertificate_SelfSigned(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)

	cert, err := newCertificate(id)
	require.NoError(t, err)

	assert.NoError(t, verifyPeerCertificate(types.EmptyNodeID)(cert.Certificate, nil))
	assert.NoError(t, verifyPeerCertificate(id.ID())(cert.Certificate, nil))
}

func TestVerifyPeerCertificate_WrongPeer(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)
	other, err := identity.Generate()
	require.NoError(t, err)

	cert, err := newCertificate(id)
	require.NoError(t, err)

	err = verifyPeerCertificate(other.ID())(cert.Certificate, nil)
	assert.ErrorIs(t, err, ErrPeerIDMismatch)
}

func TestVerifyPeerCertificate_TamperedSignature(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)

	cert, err := newCertificate(id)
	require.NoError(t, err)

	raw := append([]byte(nil), cert.Certificate[0]...)
	raw[len(raw)-1] ^= 0xff

	assert.Error(t, verifyPeerCertificate(types.EmptyNodeID)([][]byte{raw}, nil))
}

func TestVerifyPeerCertificate_NoCertificate(t *testing.T) {
	assert.ErrorIs(t, verifyPeerCertificate(types.EmptyNodeID)(nil, nil), ErrNoCertificate)
}
