package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/insightpulse/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/insightpulse/internal/common"
	"github.com/dmitrijs2005/insightpulse/internal/cryptox"
	"github.com/dmitrijs2005/insightpulse/internal/models"
)

const slotVersion = 0

// persisted is the durable subset of State.
type persisted struct {
	User            *models.User `json:"user"`
	Token           string       `json:"token"`
	RefreshToken    string       `json:"refreshToken"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

type envelope struct {
	State   persisted `json:"state"`
	Version int       `json:"version"`
}

// Slot is the durable home of the session: one key in a metadata
// repository holding JSON, optionally sealed with AES-GCM.
type Slot struct {
	repo    metadata.Repository
	key     string
	sealKey []byte
}

// NewSlot stores the session under common.SessionSlotKey. A non-empty
// passphrase encrypts the stored value.
func NewSlot(repo metadata.Repository, passphrase string) *Slot {
	s := &Slot{repo: repo, key: common.SessionSlotKey}
	if passphrase != "" {
		s.sealKey = cryptox.SlotKey(passphrase)
	}
	return s
}

// Load returns the stored session, or nil when the slot is empty.
func (s *Slot) Load(ctx context.Context) (*State, error) {
	raw, err := s.repo.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	if s.sealKey != nil {
		if raw, err = cryptox.Open(s.sealKey, raw); err != nil {
			return nil, fmt.Errorf("open session slot: %w", err)
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode session slot: %w", err)
	}
	return &State{
		User:            env.State.User,
		Token:           env.State.Token,
		RefreshToken:    env.State.RefreshToken,
		IsAuthenticated: env.State.IsAuthenticated,
	}, nil
}

// Save writes the durable fields of st.
func (s *Slot) Save(ctx context.Context, st State) error {
	raw, err := json.Marshal(envelope{
		State: persisted{
			User:            st.User,
			Token:           st.Token,
			RefreshToken:    st.RefreshToken,
			IsAuthenticated: st.IsAuthenticated,
		},
		Version: slotVersion,
	})
	if err != nil {
		return err
	}
	if s.sealKey != nil {
		if raw, err = cryptox.Seal(s.sealKey, raw); err != nil {
			return err
		}
	}
	return s.repo.Set(ctx, s.key, raw)
}

func (s *Slot) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, s.key)
}
