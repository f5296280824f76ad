package rpc

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/feeling-system/internal/feeling"
	"github.com/danielpatrickdp/feeling-system/internal/memory"
)

// #region messages

// ProcessRequest carries one interaction. Now is RFC 3339; empty means the
// server clock.
type ProcessRequest struct {
	PeerID  string             `json:"peer_id"`
	Text    string             `json:"text"`
	Signals map[string]float64 `json:"signals,omitempty"`
	Now     string             `json:"now,omitempty"`
}

// RestoreRequest regenerates embodied resources for Hours of rest.
type RestoreRequest struct {
	Hours float64 `json:"hours"`
}

// RecallRequest selects memories by emotion or by peer. Exactly one of
// Emotion and PeerID is set.
type RecallRequest struct {
	Emotion string `json:"emotion,omitempty"`
	PeerID  string `json:"peer_id,omitempty"`
	Limit   int    `json:"limit"`
	Now     string `json:"now,omitempty"`
}

// RecallResponse lists recalled memories, strongest or newest first.
type RecallResponse struct {
	Memories []memory.Entry `json:"memories"`
}

type empty struct{}

// #endregion messages

// #region codec

// toStruct encodes v through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	var s structpb.Struct
	if err := protojson.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("encode struct: %w", err)
	}
	return &s, nil
}

// fromStruct decodes s into v through its JSON form.
func fromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode struct: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal message: %w", err)
	}
	return nil
}

func parseNow(s string, clock func() time.Time) (time.Time, error) {
	if s == "" {
		return clock().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse now %q: %w", s, err)
	}
	return t.UTC(), nil
}

func (r ProcessRequest) interaction(clock func() time.Time) (feeling.Interaction, error) {
	now, err := parseNow(r.Now, clock)
	if err != nil {
		return feeling.Interaction{}, err
	}
	return feeling.Interaction{
		PeerID:  r.PeerID,
		Text:    r.Text,
		Signals: r.Signals,
		Now:     now,
	}, nil
}

// #endregion codec
