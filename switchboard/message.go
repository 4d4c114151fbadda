// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package switchboard

import (
	"sort"
	"strings"
)

// DeliveryClass is the MSG delivery-class letter, per spec.md §3 and §4.6.
type DeliveryClass byte

const (
	// Unacknowledged is fire-and-forget, used for typing notifications.
	Unacknowledged DeliveryClass = 'U'
	// Acknowledged waits for ACK/NAK and is the default for text messages.
	Acknowledged DeliveryClass = 'A'
	// Notification expects no acknowledgement at all.
	Notification DeliveryClass = 'N'
)

// Message is an instant message body plus its MIME-like headers, per
// spec.md §3. Rendering the body's exact MIME structure beyond headers +
// blank line + bytes is out of scope per spec.md §1 — callers supply
// already-rendered body bytes and a content type.
type Message struct {
	ContentType string
	Headers     map[string]string
	Body        []byte
}

// classFor returns the default delivery class for a content type, per
// spec.md §4.6: typing notifications are fire-and-forget, everything else
// defaults to acknowledged delivery.
func classFor(contentType string) DeliveryClass {
	if strings.HasPrefix(contentType, "text/x-msmsgscontrol") {
		return Unacknowledged
	}
	return Acknowledged
}

// encode renders the MIME-Version/Content-Type preamble, any extra
// headers, a blank line, and the body — the wire payload of a MSG command,
// per the E4 scenario in spec.md §8.
func (m Message) encode() []byte {
	var b strings.Builder
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: ")
	b.WriteString(m.ContentType)
	b.WriteString("\r\n")

	keys := make([]string, 0, len(m.Headers))
	for k := range m.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(m.Headers[k])
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	b.Write(m.Body)
	return []byte(b.String())
}

// decodeMessage parses a MSG payload into headers and body.
func decodeMessage(payload []byte) Message {
	idx := indexHeaderBoundary(payload)
	headerBlock, body := payload, []byte(nil)
	if idx >= 0 {
		headerBlock = payload[:idx]
		body = payload[idx+4:]
	}

	m := Message{Headers: make(map[string]string)}
	for _, line := range strings.Split(string(headerBlock), "\r\n") {
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if strings.EqualFold(k, "Content-Type") {
			m.ContentType = v
		} else {
			m.Headers[k] = v
		}
	}
	m.Body = body
	return m
}

func indexHeaderBoundary(payload []byte) int {
	return strings.Index(string(payload), "\r\n\r\n")
}

// Kind classifies an inbound message by its content type, per spec.md
// §4.6: text/plain routes as a text message, text/x-msmsgscontrol as a
// typing notification, anything else as raw.
type Kind int

const (
	KindText Kind = iota
	KindTyping
	KindRaw
)

// Kind classifies m by its content type.
func (m Message) Kind() Kind {
	switch {
	case strings.HasPrefix(m.ContentType, "text/plain"):
		return KindText
	case strings.HasPrefix(m.ContentType, "text/x-msmsgscontrol"):
		return KindTyping
	default:
		return KindRaw
	}
}
