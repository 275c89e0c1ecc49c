package container

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/ulikunitz/xz/lzma"

	"github.com/kelvyne/as3"
	"github.com/kelvyne/as3/bytecode"
	"github.com/kelvyne/swf"

	"github.com/obfdofus/abcdeob/internal/abcmodel"
)

// Compression names the SWF body compression scheme.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionZlib
	CompressionLZMA
)

const (
	sigUncompressed = "FWS"
	sigZlib         = "CWS"
	sigLZMA         = "ZWS"
)

// Movie is an opened SWF file: its uncompressed body split into a header
// (signature/version/stage rect/frame rate/frame count) and a raw tag
// stream, plus the parsed+linked ABC bytecode found in the frame1 DoABC
// tag. Saving re-encodes only the ABC payload and splices it back into the
// original tag stream, leaving every other tag byte-for-byte untouched.
type Movie struct {
	Version   uint8
	Rect      Rect
	FrameRate uint16
	FrameCount uint16

	// sourceCompression is the compression scheme Open found on disk,
	// returned by Compression() so a caller can pass it back to Save to
	// leave the compression unchanged.
	sourceCompression Compression

	tagsBeforeABC []byte // raw bytes of every tag preceding the DoABC tag
	abcTagName    string
	abcIsDoABC2   bool
	abcFlags      uint32 // DoABC2 only
	tagsAfterABC  []byte // raw bytes of every tag from just after DoABC onward (incl. End tag)

	ABC *as3.AbcFile
}

// Open reads the SWF at path, decompressing its body per the FWS/CWS/ZWS
// signature, and locates+links the frame1 DoABC/DoABC2 tag's ABC bytecode.
func Open(path string) (*Movie, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("container: reading %s: %w", path, err)
	}
	if len(raw) < 8 {
		return nil, fmt.Errorf("container: %s too short to be an SWF", path)
	}

	sig := string(raw[0:3])
	version := raw[3]
	// raw[4:8] is the little-endian total file length, unused here since
	// we recompute it on save.
	body := raw[8:]

	var sourceCompression Compression
	switch sig {
	case sigUncompressed:
		sourceCompression = CompressionNone
	case sigZlib:
		sourceCompression = CompressionZlib
	case sigLZMA:
		sourceCompression = CompressionLZMA
	}

	switch sig {
	case sigUncompressed:
	case sigZlib:
		r, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("container: zlib decompress: %w", err)
		}
		defer r.Close()
		body, err = io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("container: zlib decompress: %w", err)
		}
	case sigLZMA:
		body, err = decompressLZMA(body)
		if err != nil {
			return nil, fmt.Errorf("container: lzma decompress: %w", err)
		}
	default:
		return nil, fmt.Errorf("container: unrecognized SWF signature %q", sig)
	}

	rect, n, err := ParseRect(body)
	if err != nil {
		return nil, fmt.Errorf("container: stage rect: %w", err)
	}
	pos := n
	if pos+4 > len(body) {
		return nil, fmt.Errorf("container: truncated frame header")
	}
	frameRate := binary.LittleEndian.Uint16(body[pos:])
	frameCount := binary.LittleEndian.Uint16(body[pos+2:])
	pos += 4

	m := &Movie{
		Version:           version,
		Rect:              rect,
		FrameRate:         frameRate,
		FrameCount:        frameCount,
		sourceCompression: sourceCompression,
	}

	tagStream := body[pos:]
	before, abcTag, abcStart, abcEnd, after, err := splitAtDoABC(tagStream)
	if err != nil {
		return nil, err
	}
	m.tagsBeforeABC = before
	m.tagsAfterABC = after
	m.abcTagName = abcTag.name
	m.abcIsDoABC2 = abcTag.isDoABC2
	m.abcFlags = abcTag.flags

	abc, err := bytecode.Parse(bytecode.NewReader(bytes.NewReader(tagStream[abcStart:abcEnd])))
	if err != nil {
		return nil, fmt.Errorf("container: abc parse: %w", err)
	}
	linked, err := as3.Link(&abc)
	if err != nil {
		return nil, fmt.Errorf("container: abc link: %w", err)
	}
	m.ABC = &linked
	return m, nil
}

// swfTagCode mirrors the small subset of swf.Tag codes this package cares
// about directly (the rest of the tag stream is carried through opaque).
const (
	tagCodeEnd    = 0
	tagCodeDoABC  = int(swf.CodeTagDoABC)
	tagCodeDoABC2 = 82
)

type abcTagInfo struct {
	name     string
	isDoABC2 bool
	flags    uint32
}

// splitAtDoABC walks the raw (post-header) tag stream byte by byte, byte
// offsets only (tag headers are a single u16, optionally followed by a u32
// long-form length; nothing below the tag level is bit-packed), looking
// for the first DoABC/DoABC2 tag whose embedded name is "frame1" (mirrors
// extractor.go's own frame1 filter). It returns the raw bytes before that
// tag, the tag's own metadata, the ABC payload's [start,end) byte range
// within tagStream, and the raw bytes from the tag after it onward.
func splitAtDoABC(tagStream []byte) (before []byte, info abcTagInfo, abcStart, abcEnd int, after []byte, err error) {
	pos := 0
	for pos < len(tagStream) {
		if pos+2 > len(tagStream) {
			return nil, info, 0, 0, nil, fmt.Errorf("container: truncated tag header")
		}
		codeAndLength := binary.LittleEndian.Uint16(tagStream[pos:])
		code := int(codeAndLength >> 6)
		length := int(codeAndLength & 0x3f)
		headerLen := 2
		if length == 0x3f {
			if pos+6 > len(tagStream) {
				return nil, info, 0, 0, nil, fmt.Errorf("container: truncated long tag header")
			}
			length = int(binary.LittleEndian.Uint32(tagStream[pos+2:]))
			headerLen = 6
		}
		bodyStart := pos + headerLen
		bodyEnd := bodyStart + length
		if bodyEnd > len(tagStream) {
			return nil, info, 0, 0, nil, fmt.Errorf("container: tag body runs past end of stream")
		}

		if code == tagCodeDoABC || code == tagCodeDoABC2 {
			name, abcOff, isDoABC2, flags := parseAbcTagHeader(code, tagStream[bodyStart:bodyEnd])
			if name == "frame1" {
				return tagStream[:pos],
					abcTagInfo{name: name, isDoABC2: isDoABC2, flags: flags},
					bodyStart + abcOff, bodyEnd,
					tagStream[bodyEnd:], nil
			}
		}
		if code == tagCodeEnd && length == 0 {
			pos = bodyEnd
			continue
		}
		pos = bodyEnd
	}
	return nil, info, 0, 0, nil, fmt.Errorf("container: no frame1 DoABC tag found")
}

// parseAbcTagHeader strips a DoABC tag's 4-byte flags word (DoABC2 only)
// and NUL-terminated name, returning the name and the offset within body
// where the raw ABC bytes begin.
func parseAbcTagHeader(code int, body []byte) (name string, abcOffset int, isDoABC2 bool, flags uint32) {
	pos := 0
	if code == tagCodeDoABC2 {
		if len(body) >= 4 {
			flags = binary.LittleEndian.Uint32(body)
		}
		pos = 4
		isDoABC2 = true
	}
	start := pos
	for pos < len(body) && body[pos] != 0 {
		pos++
	}
	name = string(body[start:pos])
	pos++ // skip NUL
	return name, pos, isDoABC2, flags
}

// Compression reports the compression scheme Open found m under. Save
// does not consult it; a caller that wants to keep the input's scheme
// passes this value to Save.
func (m *Movie) Compression() Compression {
	return m.sourceCompression
}

// Save re-encodes the (possibly mutated) ABC model back into its tag and
// re-serializes the whole movie, recompressing per compression.
func (m *Movie) Save(path string, compression Compression, f *abcmodel.File) error {
	abcBytes, err := abcmodel.EncodeFile(f)
	if err != nil {
		return fmt.Errorf("container: re-encoding abc: %w", err)
	}

	var tagBody []byte
	tagBody = append(tagBody, m.abcTagName...)
	nameBytes := append([]byte(m.abcTagName), 0)
	payload := make([]byte, 0, len(nameBytes)+4+len(abcBytes))
	if m.abcIsDoABC2 {
		var flagBuf [4]byte
		binary.LittleEndian.PutUint32(flagBuf[:], m.abcFlags)
		payload = append(payload, flagBuf[:]...)
	}
	payload = append(payload, nameBytes...)
	payload = append(payload, abcBytes...)

	code := tagCodeDoABC
	if m.abcIsDoABC2 {
		code = tagCodeDoABC2
	}
	abcTag := encodeTagHeader(code, len(payload))
	abcTag = append(abcTag, payload...)

	var tagStream []byte
	tagStream = append(tagStream, m.tagsBeforeABC...)
	tagStream = append(tagStream, abcTag...)
	tagStream = append(tagStream, m.tagsAfterABC...)

	var body []byte
	body = append(body, EncodeRect(m.Rect)...)
	var frameHdr [4]byte
	binary.LittleEndian.PutUint16(frameHdr[0:], m.FrameRate)
	binary.LittleEndian.PutUint16(frameHdr[2:], m.FrameCount)
	body = append(body, frameHdr[:]...)
	body = append(body, tagStream...)

	var out bytes.Buffer
	var sig string
	switch compression {
	case CompressionNone:
		sig = sigUncompressed
	case CompressionZlib:
		sig = sigZlib
	case CompressionLZMA:
		sig = sigLZMA
	default:
		return fmt.Errorf("container: unknown compression %d", compression)
	}
	out.WriteString(sig)
	out.WriteByte(m.Version)
	// placeholder file length, patched below
	out.Write([]byte{0, 0, 0, 0})

	switch compression {
	case CompressionNone:
		out.Write(body)
	case CompressionZlib:
		w := zlib.NewWriter(&out)
		if _, err := w.Write(body); err != nil {
			return fmt.Errorf("container: zlib compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("container: zlib compress: %w", err)
		}
	case CompressionLZMA:
		compressed, err := compressLZMA(body)
		if err != nil {
			return fmt.Errorf("container: lzma compress: %w", err)
		}
		out.Write(compressed)
	}

	final := out.Bytes()
	binary.LittleEndian.PutUint32(final[4:8], uint32(len(final)))

	if err := os.WriteFile(path, final, 0o644); err != nil {
		return fmt.Errorf("container: writing %s: %w", path, err)
	}
	return nil
}

func encodeTagHeader(code, length int) []byte {
	if length < 0x3f {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(code<<6|length))
		return b[:]
	}
	var b [6]byte
	binary.LittleEndian.PutUint16(b[0:], uint16(code<<6|0x3f))
	binary.LittleEndian.PutUint32(b[2:], uint32(length))
	return b[:]
}

func decompressLZMA(body []byte) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

func compressLZMA(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// endpointPattern matches a string made only of digits, dots, colons and
// dashes with at least one digit, the shape of a "host:port"-style endpoint
// string the obfuscated client keeps in its string pool. The minimum length
// of 11 is checked separately by RewriteEndpoint.
var endpointPattern = regexp.MustCompile(`^[0-9.:-]*\d[0-9.:-]*$`)

// RewriteEndpoint scans abc's string pool for the first entry at least 11
// characters long matching endpointPattern and replaces it with
// 127.0.0.1:<port>, reporting whether a replacement was made. At most one
// string is ever rewritten. Operates directly on the as3/bytecode model
// (ahead of abcmodel.FromLinked) since proxy mode needs nothing past the
// string pool: no recognizer sweep, no unscrambling.
func RewriteEndpoint(abc *as3.AbcFile, port int) bool {
	pool := &abc.Source.ConstantPool
	for i, s := range pool.Strings {
		if i == 0 {
			continue
		}
		if len(s) >= 11 && endpointPattern.MatchString(s) {
			pool.Strings[i] = fmt.Sprintf("127.0.0.1:%d", port)
			return true
		}
	}
	return false
}
