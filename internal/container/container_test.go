package container

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/kelvyne/as3"
	"github.com/kelvyne/as3/bytecode"
)

func buildTag(code int, body []byte) []byte {
	if len(body) < 0x3f {
		var hdr [2]byte
		binary.LittleEndian.PutUint16(hdr[:], uint16(code<<6|len(body)))
		return append(hdr[:], body...)
	}
	hdr := encodeTagHeader(code, len(body))
	return append(hdr, body...)
}

func TestEncodeTagHeaderRoundTripsShortAndLongForms(t *testing.T) {
	short := encodeTagHeader(tagCodeEnd, 0)
	if len(short) != 2 {
		t.Fatalf("short tag header length = %d, want 2", len(short))
	}
	gotCode := int(binary.LittleEndian.Uint16(short) >> 6)
	if gotCode != tagCodeEnd {
		t.Fatalf("short tag code = %d, want %d", gotCode, tagCodeEnd)
	}

	long := encodeTagHeader(tagCodeDoABC, 100)
	if len(long) != 6 {
		t.Fatalf("long tag header length = %d, want 6", len(long))
	}
	gotLen := binary.LittleEndian.Uint32(long[2:])
	if gotLen != 100 {
		t.Fatalf("long tag length = %d, want 100", gotLen)
	}
}

func TestSplitAtDoABCFindsFrame1Tag(t *testing.T) {
	abcPayload := []byte{0x01, 0x02, 0x03, 0x04}
	doAbcBody := append([]byte("frame1\x00"), abcPayload...)

	preamble := buildTag(9, []byte{0xAA}) // arbitrary non-ABC tag
	doAbc := buildTag(tagCodeDoABC, doAbcBody)
	trailer := buildTag(tagCodeEnd, nil)

	stream := append(append(append([]byte{}, preamble...), doAbc...), trailer...)

	before, info, start, end, after, err := splitAtDoABC(stream)
	if err != nil {
		t.Fatalf("splitAtDoABC: %v", err)
	}
	if !bytes.Equal(before, preamble) {
		t.Fatalf("before = %v, want %v", before, preamble)
	}
	if info.name != "frame1" {
		t.Fatalf("tag name = %q, want frame1", info.name)
	}
	if !bytes.Equal(stream[start:end], abcPayload) {
		t.Fatalf("abc payload = %v, want %v", stream[start:end], abcPayload)
	}
	if !bytes.Equal(after, trailer) {
		t.Fatalf("after = %v, want %v", after, trailer)
	}
}

func TestRewriteEndpointReplacesFirstMatch(t *testing.T) {
	abc := bytecode.AbcFile{}
	abc.ConstantPool.Strings = []string{"", "nope", "192.168.1.100:5555", "another"}
	linked := as3.AbcFile{Source: &abc}

	if ok := RewriteEndpoint(&linked, 9999); !ok {
		t.Fatalf("RewriteEndpoint reported no match")
	}
	if got := abc.ConstantPool.Strings[2]; got != "127.0.0.1:9999" {
		t.Fatalf("rewritten string = %q", got)
	}
	if abc.ConstantPool.Strings[1] != "nope" {
		t.Fatalf("unrelated string was modified")
	}
}

func TestRewriteEndpointNoMatchReturnsFalse(t *testing.T) {
	abc := bytecode.AbcFile{}
	abc.ConstantPool.Strings = []string{"", "short", "notanendpoint"}
	linked := as3.AbcFile{Source: &abc}

	if ok := RewriteEndpoint(&linked, 1234); ok {
		t.Fatalf("RewriteEndpoint reported a match where none should exist")
	}
}
