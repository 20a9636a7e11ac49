// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scum

import "strings"

// Classification is the outcome of comparing a response line to a token
type Classification int

// Classification values
const (
	Rejected Classification = iota
	Acknowledged
)

func (c Classification) String() string {
	if c == Acknowledged {
		return "acknowledged"
	}
	return "rejected"
}

// Response is one line received from the programmer
type Response struct {
	// Raw is the line as received, delimiter included
	Raw []byte
}

// ParseResponse wraps a received line
func ParseResponse(line []byte) Response {
	return Response{Raw: line}
}

// Token returns the line with surrounding whitespace (and the CR LF
// terminator) removed
func (r Response) Token() string {
	return strings.TrimSpace(string(r.Raw))
}

// Classify compares the trimmed line with the expected success token.
// Anything else, the empty line included, is a rejection.
func (r Response) Classify(expected string) Classification {
	if r.Token() == expected {
		return Acknowledged
	}
	return Rejected
}
