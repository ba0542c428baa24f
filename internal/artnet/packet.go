// SPDX-License-Identifier: MIT

// Package artnet decodes Art-Net DMX datagrams and keeps channel buffers
// current from a shared UDP port.
package artnet

import (
	"encoding/binary"
	"errors"
)

const (
	// DefaultPort is the registered Art-Net UDP port.
	DefaultPort = 6454

	// OpDMX is the ArtDmx opcode (stored little-endian on the wire).
	OpDMX uint16 = 0x5000
	// OpPoll is the ArtPoll opcode. Decoded only to be ignored.
	OpPoll uint16 = 0x2000

	// ProtocolVersion is the Art-Net revision written by Encode.
	ProtocolVersion uint16 = 14

	// HeaderSize is the fixed ArtDmx header length.
	HeaderSize = 18

	// MaxPacketSize bounds the receive buffer; ArtDmx tops out at 530 bytes.
	MaxPacketSize = 1024
)

// Signature is the 8 byte packet identifier: "Art-Net" followed by NUL.
var Signature = [8]byte{'A', 'r', 't', '-', 'N', 'e', 't', 0}

var (
	// ErrShortPacket is returned for datagrams shorter than the ArtDmx header.
	ErrShortPacket = errors.New("artnet: packet shorter than header")
	// ErrBadSignature is returned when the datagram is not Art-Net.
	ErrBadSignature = errors.New("artnet: bad signature")
	// ErrIgnoredOpcode is returned for Art-Net packets other than ArtDmx.
	ErrIgnoredOpcode = errors.New("artnet: opcode not handled")
)

// Packet is a decoded ArtDmx datagram.
type Packet struct {
	OpCode   uint16
	ProtVer  uint16
	Sequence uint8
	Physical uint8
	Universe uint16
	Length   uint16
	Data     []byte
}

// Decode parses an ArtDmx datagram.
//
// Layout: 0-7 signature, 8-9 opcode (LE), 10-11 protocol version (BE),
// 12 sequence, 13 physical, 14-15 universe (LE), 16-17 length (BE),
// 18.. channel data. Length is the only field besides the version that is
// big-endian. Data aliases b and is clamped to the datagram.
func Decode(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, ErrShortPacket
	}
	if [8]byte(b[0:8]) != Signature {
		return Packet{}, ErrBadSignature
	}
	p := Packet{OpCode: binary.LittleEndian.Uint16(b[8:10])}
	if p.OpCode != OpDMX {
		return p, ErrIgnoredOpcode
	}
	p.ProtVer = binary.BigEndian.Uint16(b[10:12])
	p.Sequence = b[12]
	p.Physical = b[13]
	p.Universe = binary.LittleEndian.Uint16(b[14:16])
	p.Length = binary.BigEndian.Uint16(b[16:18])

	end := HeaderSize + int(p.Length)
	if end > len(b) {
		end = len(b)
	}
	p.Data = b[HeaderSize:end]
	return p, nil
}

// Encode builds an ArtDmx datagram for universe carrying data.
func Encode(p Packet) []byte {
	data := p.Data
	if len(data) > 512 {
		data = data[:512]
	}
	out := make([]byte, HeaderSize+len(data))
	copy(out[0:8], Signature[:])
	binary.LittleEndian.PutUint16(out[8:10], OpDMX)
	ver := p.ProtVer
	if ver == 0 {
		ver = ProtocolVersion
	}
	binary.BigEndian.PutUint16(out[10:12], ver)
	out[12] = p.Sequence
	out[13] = p.Physical
	binary.LittleEndian.PutUint16(out[14:16], p.Universe)
	binary.BigEndian.PutUint16(out[16:18], uint16(len(data)))
	copy(out[HeaderSize:], data)
	return out
}
