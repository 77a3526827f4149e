// Package json persists conversation transcripts as versioned JSON files.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/wicket"
)

// envelope is the v1 wire format for a persisted transcript. It carries no
// session credentials.
type envelope struct {
	Version        int          `json:"version"`
	ConversationID int64        `json:"conversation_id"`
	Closed         bool         `json:"closed"`
	SavedAt        time.Time    `json:"saved_at"`
	Messages       []messageDTO `json:"messages"`
}

type messageDTO struct {
	ID          int64           `json:"id"`
	From        string          `json:"from"`
	Text        string          `json:"text,omitempty"`
	Attachments []attachmentDTO `json:"attachments,omitempty"`
	TS          int64           `json:"ts"`
}

type attachmentDTO struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// MarshalTranscript serializes a Transcript to JSON in v1 envelope format.
func MarshalTranscript(tr wicket.Transcript) ([]byte, error) {
	env := envelope{
		Version:        1,
		ConversationID: tr.ConversationID,
		Closed:         tr.Closed,
		SavedAt:        time.Now().UTC(),
		Messages:       make([]messageDTO, len(tr.Messages)),
	}
	for i, msg := range tr.Messages {
		env.Messages[i] = marshalMessage(msg)
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalTranscript deserializes a Transcript from JSON in v1 envelope format.
func UnmarshalTranscript(data []byte) (wicket.Transcript, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return wicket.Transcript{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return wicket.Transcript{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	msgs := make([]wicket.Message, len(env.Messages))
	for i, dto := range env.Messages {
		msgs[i] = unmarshalMessage(dto)
	}
	return wicket.Transcript{
		ConversationID: env.ConversationID,
		Closed:         env.Closed,
		Messages:       msgs,
	}, nil
}

func marshalMessage(m wicket.Message) messageDTO {
	dto := messageDTO{
		ID:   m.ID,
		From: string(m.From),
		Text: m.Text,
		TS:   m.Timestamp.Unix(),
	}
	for _, a := range m.Attachments {
		dto.Attachments = append(dto.Attachments, attachmentDTO{URL: a.URL, Name: a.Name})
	}
	return dto
}

func unmarshalMessage(dto messageDTO) wicket.Message {
	m := wicket.Message{
		ID:        dto.ID,
		From:      wicket.Side(dto.From),
		Text:      dto.Text,
		Timestamp: time.Unix(dto.TS, 0).UTC(),
	}
	for _, a := range dto.Attachments {
		m.Attachments = append(m.Attachments, wicket.Attachment{URL: a.URL, Name: a.Name})
	}
	return m
}

// Save writes a Transcript to a JSON file, creating parent directories as needed.
func Save(path string, tr wicket.Transcript) error {
	data, err := MarshalTranscript(tr)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a Transcript from a JSON file.
func Load(path string) (wicket.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return wicket.Transcript{}, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalTranscript(data)
}
