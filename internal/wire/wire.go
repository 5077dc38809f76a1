// Package wire decodes frames received from the Picarto chat server and
// defines the payload shapes sent back to it.
//
// Every frame is a JSON object carrying a type discriminator under "t".
// Frames with discriminator "c" bundle one or more chat messages under "m";
// every other discriminator is passed through as an opaque record so that
// raw listeners can still observe it.
package wire

import (
	"encoding/json"
	"fmt"
)

// TypeChat is the discriminator of frames carrying a batch of chat messages.
const TypeChat = "c"

// Outbound payload type tags understood by the server.
const (
	typeChatSend      = "chat"
	typeRemoveMessage = "removeMessage"
)

// DecodeError reports a frame or sub-record that could not be decoded.
// The frame is dropped; the connection stays up.
type DecodeError struct {
	Reason string
	Frame  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame: %s", e.Reason)
}

// Record is one successfully parsed frame. Fields holds the full decoded
// object for raw listeners; Type is the value of the "t" discriminator, or
// an empty string when the frame carries none.
type Record struct {
	Type   string
	Fields map[string]any

	batch []wireMessage
}

// Envelope is a single chat message with its metadata, independent of
// transport framing. All fields are present on a valid wire record.
type Envelope struct {
	ChannelID    int64
	ChannelName  string
	ChannelColor string
	Timestamp    int64 // milliseconds since epoch
	MessageID    string
	Body         string
	UserID       int64
	UserName     string
	UserColor    string
	AvatarURL    string
}

// wireFrame mirrors the top level of an inbound frame.
type wireFrame struct {
	Type  string        `json:"t"`
	Batch []wireMessage `json:"m"`
}

// wireMessage mirrors one entry of a chat batch. Pointer fields let the
// decoder tell a missing key apart from a zero value.
type wireMessage struct {
	ChannelID    *int64  `json:"c"`
	ChannelName  *string `json:"rn"`
	ChannelColor *string `json:"cc"`
	Timestamp    *int64  `json:"t"`
	MessageID    *string `json:"id"`
	Body         *string `json:"m"`
	UserID       *int64  `json:"u"`
	UserName     *string `json:"n"`
	UserColor    *string `json:"k"`
	AvatarURL    *string `json:"i"`
}

// Decode parses one raw frame. An empty frame yields (nil, nil) and is
// ignored by callers. Malformed JSON yields a DecodeError.
func Decode(data []byte) (*Record, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &DecodeError{Reason: err.Error(), Frame: string(data)}
	}

	var frame wireFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, &DecodeError{Reason: err.Error(), Frame: string(data)}
	}

	return &Record{Type: frame.Type, Fields: fields, batch: frame.Batch}, nil
}

// IsChat reports whether the record is a chat batch.
func (r *Record) IsChat() bool {
	return r.Type == TypeChat
}

// Envelopes converts a chat batch into its message envelopes, in wire
// order. A sub-record missing a required field yields a DecodeError.
func (r *Record) Envelopes() ([]Envelope, error) {
	envs := make([]Envelope, 0, len(r.batch))
	for i, m := range r.batch {
		env, err := m.toEnvelope()
		if err != nil {
			return nil, &DecodeError{Reason: fmt.Sprintf("chat batch entry %d: %v", i, err)}
		}
		envs = append(envs, env)
	}
	return envs, nil
}

func (m wireMessage) toEnvelope() (Envelope, error) {
	required := []struct {
		key string
		ok  bool
	}{
		{"c", m.ChannelID != nil},
		{"rn", m.ChannelName != nil},
		{"cc", m.ChannelColor != nil},
		{"t", m.Timestamp != nil},
		{"id", m.MessageID != nil},
		{"m", m.Body != nil},
		{"u", m.UserID != nil},
		{"n", m.UserName != nil},
		{"k", m.UserColor != nil},
		{"i", m.AvatarURL != nil},
	}
	for _, f := range required {
		if !f.ok {
			return Envelope{}, fmt.Errorf("missing field %q", f.key)
		}
	}

	return Envelope{
		ChannelID:    *m.ChannelID,
		ChannelName:  *m.ChannelName,
		ChannelColor: *m.ChannelColor,
		Timestamp:    *m.Timestamp,
		MessageID:    *m.MessageID,
		Body:         *m.Body,
		UserID:       *m.UserID,
		UserName:     *m.UserName,
		UserColor:    *m.UserColor,
		AvatarURL:    *m.AvatarURL,
	}, nil
}

// ChatPayload asks the server to post a chat message.
type ChatPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewChatPayload builds the outbound payload for posting text to chat.
func NewChatPayload(text string) ChatPayload {
	return ChatPayload{Type: typeChatSend, Message: text}
}

// RemovePayload asks the server to remove a message. Servers silently
// ignore the request when the sender lacks moderator rights.
type RemovePayload struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
	ChannelID int64  `json:"channelId"`
}

// NewRemovePayload builds the outbound payload for removing a message.
func NewRemovePayload(messageID string, channelID int64) RemovePayload {
	return RemovePayload{Type: typeRemoveMessage, MessageID: messageID, ChannelID: channelID}
}
