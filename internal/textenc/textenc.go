// Package textenc implements A7, the --encoding/--fallback-encoding
// handling spec.md §6 calls for: CVS log messages and file contents are
// not guaranteed to be valid UTF-8, so the pipeline tries a list of
// candidate IANA encodings in order and records which (if any) decoded
// cleanly.
//
// Grounded verbatim in the teacher's ianaDecode (src/goreposurgeon/
// goreposurgeon.go ~3223-3253): the same ASCII-synonym workaround for a
// known ianaindex bug (plain ASCII names do not return a copying decoder),
// the same enc.NewDecoder().Bytes(...) call shape.
//
// SPDX-License-Identifier: BSD-2-Clause
package textenc

import (
	"fmt"

	ianaindex "golang.org/x/text/encoding/ianaindex"
)

// asciiNames lists IANA synonyms for US-ASCII that ianaindex fails to map
// to a copying decoder (the teacher's documented workaround).
var asciiNames = map[string]bool{
	"US-ASCII": true, "iso-ir-6": true, "ANSI_X3.4-1968": true,
	"ANSI_X3.4-1986": true, "ISO_646.irv:1991": true, "ISO646-US": true,
	"us": true, "IBM367": true, "cp367": true, "csASCII": true, "ascii": true,
}

// decode reports whether data decodes cleanly under codec, returning the
// decoded string when it does.
func decode(data []byte, codec string) (string, bool, error) {
	if asciiNames[codec] {
		for _, c := range string(data) {
			if c > 127 {
				return string(data), false, nil
			}
		}
		return string(data), true, nil
	}
	enc, err := ianaindex.IANA.Encoding(codec)
	if err != nil {
		return string(data), false, err
	}
	if enc == nil {
		return string(data), false, fmt.Errorf("textenc: unknown IANA encoding %q", codec)
	}
	dec := enc.NewDecoder()
	decoded, err := dec.Bytes(data)
	return string(decoded), err == nil, err
}

// Decoder tries a fixed list of encodings, in order, then falls back to a
// designated last-resort encoding that is assumed never to fail (spec §6:
// "--encoding may be repeated; --fallback-encoding names the encoding
// used when every --encoding candidate fails to decode cleanly").
type Decoder struct {
	candidates []string
	fallback   string
}

// NewDecoder builds a Decoder. fallback defaults to "US-ASCII" when empty,
// matching the teacher's own default codec.
func NewDecoder(candidates []string, fallback string) *Decoder {
	if fallback == "" {
		fallback = "US-ASCII"
	}
	return &Decoder{candidates: candidates, fallback: fallback}
}

// Result reports which encoding (if any) successfully decoded the input.
type Result struct {
	Text     string
	Encoding string
	Fellback bool
}

// Decode tries each candidate encoding in order, returning the first clean
// decode; if none decode cleanly it decodes with the fallback encoding and
// reports Fellback.
func (d *Decoder) Decode(data []byte) (Result, error) {
	for _, codec := range d.candidates {
		text, ok, err := decode(data, codec)
		if err == nil && ok {
			return Result{Text: text, Encoding: codec}, nil
		}
	}
	text, _, err := decode(data, d.fallback)
	if err != nil {
		return Result{}, fmt.Errorf("textenc: fallback encoding %q failed: %w", d.fallback, err)
	}
	return Result{Text: text, Encoding: d.fallback, Fellback: true}, nil
}
