// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xmltok implements the spec's §4.6 streaming XML tokenizer: a
// non-copying lexer that hands back Data/Rest slices pointing directly
// into its own buffer (mmap-resident or read-refilled), writing NUL
// sentinels in place to delimit names the way the source this was
// distilled from does, rather than allocating per-token strings. There
// is no teacher analogue for this component (cznic-exp carries no XML
// code); it is grounded entirely in spec.md §4.6 and the literal
// tokenizer scenarios in §8.
package xmltok

import "io"

// Flag bits controlling a Source, per §4.6.
const (
	IGNOREWS uint32 = 1 << iota // drop whitespace-only TEXT between markup
	TRIMWS                      // trim leading/trailing whitespace of TEXT
	EOFSEEN                     // underlying reader is exhausted
	NOREADS                     // never attempt another read (mmap sources)
	RESIDENT                    // buffer holds the entire input already
	CLOSEFD                     // Close() closes the underlying reader too
)

// Source owns a byte buffer and the cursor into it that NextToken
// advances. It is not safe for concurrent use (§5 "serialised by the
// caller").
//
// mark is the absolute position of the start of the token currently
// being lexed. refill only ever discards bytes before mark, and keeps
// mark and pos shifted by the same amount, so any offset captured
// relative to mark stays valid across a refill that happens mid-token
// (§8 "a token whose bytes straddle a refill returns contiguous data").
type Source struct {
	buf    []byte
	pos    int
	end    int
	mark   int
	lineno int
	last   Type
	flags  uint32
	failed bool
	r      io.Reader
	closer io.Closer
}

// OpenMmap wraps an already fully-resident byte slice (typically an
// mmap'd file, or a buffer the caller fully read up front) as a Source
// that never attempts a read.
func OpenMmap(data []byte, flags uint32) *Source {
	return &Source{
		buf:   data,
		end:   len(data),
		flags: flags | RESIDENT | NOREADS,
	}
}

// OpenReader wraps r in a refill-on-demand Source with an initial buffer
// of bufSize bytes. If CLOSEFD is set and r implements io.Closer,
// Close releases it too.
func OpenReader(r io.Reader, bufSize int, flags uint32) *Source {
	if bufSize < 64 {
		bufSize = 64
	}
	s := &Source{
		buf:   make([]byte, bufSize),
		flags: flags,
		r:     r,
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Lineno returns the current 1-based line number (newlines consumed so
// far plus one), for diagnostics only.
func (s *Source) Lineno() int { return s.lineno + 1 }

// Flags returns the source's current flag bits.
func (s *Source) Flags() uint32 { return s.flags }

// SetFlags replaces the source's flag bits.
func (s *Source) SetFlags(f uint32) { s.flags = f }

// Close releases the underlying reader if CLOSEFD was set at open time.
func (s *Source) Close() error {
	if s.flags&CLOSEFD != 0 && s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *Source) fail() Token {
	s.failed = true
	return Token{Type: FAIL}
}

// refill retains the unread-and-still-needed tail [mark:end], moves it
// to the buffer start, grows the buffer if that tail already fills it,
// and reads more from the underlying reader. pos and mark are both
// shifted by the same amount so relative offsets captured against mark
// stay correct.
func (s *Source) refill() {
	if s.r == nil || s.flags&NOREADS != 0 {
		s.flags |= EOFSEEN
		return
	}
	shift := s.mark
	retained := s.end - shift
	if shift > 0 {
		copy(s.buf, s.buf[shift:s.end])
	}
	s.pos -= shift
	s.mark = 0
	s.end = retained
	if retained == len(s.buf) {
		grown := make([]byte, len(s.buf)*2)
		copy(grown, s.buf[:retained])
		s.buf = grown
	}
	n, err := s.r.Read(s.buf[s.end:])
	s.end += n
	if err != nil {
		s.flags |= EOFSEEN
	}
}

// atEOF reports whether the cursor has caught up with the available
// buffer, refilling first if a read-mode source can still produce more.
func (s *Source) atEOF() bool {
	for s.pos >= s.end {
		if s.flags&(RESIDENT|EOFSEEN) != 0 {
			return true
		}
		s.refill()
	}
	return false
}

// forceAvailable tries to refill until at least n bytes are available
// from the current position, for lookaheads spanning more than one byte
// (e.g. "?>", "-->"). Returns false if the source is exhausted first.
func (s *Source) forceAvailable(n int) bool {
	for s.end-s.pos < n {
		if s.flags&(RESIDENT|EOFSEEN) != 0 {
			return false
		}
		before := s.end
		s.refill()
		if s.end == before {
			return false
		}
	}
	return true
}

func (s *Source) step() {
	if s.buf[s.pos] == '\n' {
		s.lineno++
	}
	s.pos++
}

// relStart returns the current position expressed relative to mark, for
// later use with sliceFrom once scanning (and any intervening refills)
// has finished.
func (s *Source) relStart() int { return s.pos - s.mark }

func (s *Source) sliceFrom(rel int) []byte { return s.buf[s.mark+rel : s.pos] }

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isNameStart(c byte) bool {
	return c == '_' || c == ':' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c == '-' || c == '.' || (c >= '0' && c <= '9')
}

func trimWS(b []byte) []byte {
	i := 0
	for i < len(b) && isSpace(b[i]) {
		i++
	}
	j := len(b)
	for j > i && isSpace(b[j-1]) {
		j--
	}
	return b[i:j]
}

func isAllWS(b []byte) bool {
	for _, c := range b {
		if !isSpace(c) {
			return false
		}
	}
	return true
}

// NextToken returns the next token in document order. Once FAIL is
// returned the source is latched: every subsequent call also returns
// FAIL (§4.6 "the source is latched").
func (s *Source) NextToken() Token {
	if s.failed {
		return Token{Type: FAIL}
	}
	tok := s.next()
	s.last = tok.Type
	return tok
}

func (s *Source) next() Token {
	if s.atEOF() {
		return Token{Type: EOF}
	}
	s.mark = s.pos
	if s.buf[s.pos] == '<' {
		return s.lexMarkup()
	}
	return s.lexText()
}

func (s *Source) lexText() Token {
	for !s.atEOF() && s.buf[s.pos] != '<' {
		s.step()
	}
	data := s.sliceFrom(0)

	if s.flags&TRIMWS != 0 {
		data = trimWS(data)
	}
	if s.flags&IGNOREWS != 0 && isAllWS(data) {
		if s.atEOF() {
			return Token{Type: EOF}
		}
		return s.next()
	}
	return Token{Type: TEXT, Data: data}
}

func (s *Source) lexMarkup() Token {
	s.pos++ // consume '<'
	if s.atEOF() {
		return s.fail()
	}
	switch c := s.buf[s.pos]; {
	case c == '?':
		return s.lexPI()
	case c == '!':
		return s.lexBang()
	case c == '/':
		return s.lexClose()
	case isNameStart(c):
		return s.lexElement()
	default:
		return s.fail()
	}
}

// readName scans a name at the current position (caller has already
// verified the first byte is a name-start character) and returns it.
func (s *Source) readName() []byte {
	rel := s.relStart()
	for !s.atEOF() && isNameChar(s.buf[s.pos]) {
		s.step()
	}
	return s.sliceFrom(rel)
}

func (s *Source) skipSpace() {
	for !s.atEOF() && isSpace(s.buf[s.pos]) {
		s.step()
	}
}

// nulTerminate overwrites the byte at the current position with a NUL
// sentinel and advances past it, the in-place name-delimiting mutation
// §4.6 describes; it is only ever applied to whitespace bytes separating
// a name from what follows, so it never destroys significant markup.
func (s *Source) nulTerminate() {
	if !s.atEOF() && isSpace(s.buf[s.pos]) {
		s.buf[s.pos] = 0
		s.pos++
	}
}

func (s *Source) lexClose() Token {
	s.pos++ // consume '/'
	if s.atEOF() || !isNameStart(s.buf[s.pos]) {
		return s.fail()
	}
	name := s.readName()
	s.skipSpace()
	if s.atEOF() || s.buf[s.pos] != '>' {
		return s.fail()
	}
	s.pos++ // consume '>'
	return Token{Type: CLOSE, Data: name}
}

func (s *Source) skipQuoted() {
	quote := s.buf[s.pos]
	s.step()
	for !s.atEOF() && s.buf[s.pos] != quote {
		s.step()
	}
	if !s.atEOF() {
		s.step()
	}
}

func (s *Source) lexElement() Token {
	name := s.readName()
	s.nulTerminate()
	s.skipSpace()

	restRel := s.relStart()
	for !s.atEOF() {
		c := s.buf[s.pos]
		if c == '>' || c == '/' {
			break
		}
		if c == '"' || c == '\'' {
			s.skipQuoted()
			continue
		}
		s.step()
	}
	if s.atEOF() {
		return s.fail()
	}
	rest := trimWS(s.sliceFrom(restRel))

	typ := OPEN
	if s.buf[s.pos] == '/' {
		typ = EMPTY
		s.pos++
		if s.atEOF() || s.buf[s.pos] != '>' {
			return s.fail()
		}
	}
	if s.buf[s.pos] != '>' {
		return s.fail()
	}
	s.pos++ // consume '>'
	return Token{Type: typ, Data: name, Rest: rest}
}

func (s *Source) lexPI() Token {
	s.pos++ // consume '?'
	if s.atEOF() || !isNameStart(s.buf[s.pos]) {
		return s.fail()
	}
	name := s.readName()
	s.nulTerminate()
	s.skipSpace()

	restRel := s.relStart()
	for {
		if s.atEOF() {
			return s.fail()
		}
		if s.buf[s.pos] == '?' && s.forceAvailable(2) && s.buf[s.pos+1] == '>' {
			break
		}
		s.step()
	}
	rest := trimWS(s.sliceFrom(restRel))
	s.pos += 2 // consume "?>"
	return Token{Type: PI, Data: name, Rest: rest}
}

func (s *Source) lexBang() Token {
	s.pos++ // consume '!'
	if s.forceAvailable(2) && s.buf[s.pos] == '-' && s.buf[s.pos+1] == '-' {
		return s.lexComment()
	}
	return s.lexDTD()
}

func (s *Source) lexComment() Token {
	s.pos += 2 // consume "--"
	rel := s.relStart()
	for {
		if s.atEOF() {
			return s.fail()
		}
		if s.buf[s.pos] == '-' && s.forceAvailable(3) && s.buf[s.pos+1] == '-' && s.buf[s.pos+2] == '>' {
			break
		}
		s.step()
	}
	data := s.sliceFrom(rel)
	s.pos += 3 // consume "-->"
	return Token{Type: COMMENT, Data: data}
}

// lexDTD scans a <!...> construct (DOCTYPE, CDATA, etc.) to its matching
// '>', tracking nesting depth so an internal subset in brackets doesn't
// terminate the token early.
func (s *Source) lexDTD() Token {
	rel := s.relStart()
	depth := 1
	for depth > 0 {
		if s.atEOF() {
			return s.fail()
		}
		switch s.buf[s.pos] {
		case '<':
			depth++
		case '>':
			depth--
		}
		s.step()
	}
	data := s.sliceFrom(rel)
	data = data[:len(data)-1] // drop the trailing '>'
	return Token{Type: DTD, Data: data}
}
