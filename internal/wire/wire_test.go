package wire_test

import (
	"testing"

	"github.com/ahcp-project/ahcpd/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v6(b byte) []byte {
	a := make([]byte, 16)
	a[15] = b

	return a
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	quality := uint8(1)
	o := wire.Options{
		HasExpires:    true,
		Expires:       3600,
		HasOriginTime: true,
		OriginTime:    1_700_000_000,
		IPv6Address:   append(v6(1), v6(2)...),
		IPv4Address:   []byte{10, 0, 0, 1},
		NameServer:    v6(3),
		NTPServer:     v6(4),
		HasRoutingProtocol: true,
		RoutingProtocol: wire.RoutingProtocol{
			ID:                   wire.RoutingProtocolOLSR,
			OLSRMulticastAddress: v6(5),
			OLSRLinkQuality:      &quality,
		},
	}

	w := wire.NewWriter(wire.MaxPacketSize)
	require.NoError(t, wire.EncodeOptions(w, o))

	got, err := wire.DecodeOptions(w.Bytes(), true)
	require.NoError(t, err)

	assert.Equal(t, o.Expires, got.Expires)
	assert.Equal(t, o.OriginTime, got.OriginTime)
	assert.Equal(t, o.IPv6Address, got.IPv6Address)
	assert.Equal(t, o.IPv4Address, got.IPv4Address)
	assert.Equal(t, o.NameServer, got.NameServer)
	assert.Equal(t, o.NTPServer, got.NTPServer)
	require.True(t, got.HasRoutingProtocol)
	assert.Equal(t, wire.RoutingProtocolOLSR, got.RoutingProtocol.ID)
	assert.Equal(t, o.RoutingProtocol.OLSRMulticastAddress, got.RoutingProtocol.OLSRMulticastAddress)
	require.NotNil(t, got.RoutingProtocol.OLSRLinkQuality)
	assert.Equal(t, quality, *got.RoutingProtocol.OLSRLinkQuality)
}

func TestMandatoryFlag(t *testing.T) {
	t.Parallel()

	const unknownOpt = 200

	mandatoryBody := []byte{1 /* MANDATORY */, unknownOpt, 1, 0xAA}
	_, err := wire.DecodeOptions(mandatoryBody, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, wire.ErrUnknownMandatory)

	nonMandatoryBody := []byte{unknownOpt, 1, 0xAA}
	got, err := wire.DecodeOptions(nonMandatoryBody, true)
	require.NoError(t, err)
	assert.False(t, got.HasExpires)
}

func TestOLSRLinkQualityRejectsOutOfRange(t *testing.T) {
	t.Parallel()

	sub := []byte{11 /* OLSR_LINK_QUALITY */, 1, 3}
	value := append([]byte{byte(wire.RoutingProtocolOLSR)}, sub...)

	body := []byte{4 /* ROUTING_PROTOCOL */, byte(len(value))}
	body = append(body, value...)

	_, err := wire.DecodeOptions(body, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, wire.ErrBadLength)
}

func TestHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	w := wire.NewWriter(16)
	require.NoError(t, wire.EncodeHeader(w, wire.OpReply))

	h, n, err := wire.DecodeHeader(w.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, wire.OpReply, h.Opcode)
}

func TestReplyHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	w := wire.NewWriter(64)
	h := wire.ReplyHeader{Origin: 1000, Expires: 1600, Age: 100, Length: 42}
	require.NoError(t, wire.EncodeReplyHeader(w, h))

	got, n, err := wire.DecodeReplyHeader(w.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	assert.Equal(t, h, got)
}

func TestStatefulHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	w := wire.NewWriter(64)
	h := wire.StatefulHeader{LeaseTime: 3600, UniqueID: []byte("0123456789ABCDEF"), Data: []byte{1, 2, 3}}
	require.NoError(t, wire.EncodeStatefulHeader(w, h))

	got, _, err := wire.DecodeStatefulHeader(w.Bytes())
	require.NoError(t, err)
	assert.Equal(t, h, got)
}
