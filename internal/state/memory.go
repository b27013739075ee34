// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"context"

	"github.com/pdiddy/prompt-extract/pkg/types"
)

// Memory keeps state in process. Writes counts successful writes; ReadErr
// and WriteErr force failures.
type Memory struct {
	State    types.PersistedState
	Writes   int
	ReadErr  error
	WriteErr error
}

// NewMemory returns a Memory backend seeded with st.
func NewMemory(st types.PersistedState) *Memory {
	if st.ProcessedFiles == nil {
		st.ProcessedFiles = types.ProcessedFiles{}
	}
	return &Memory{State: st.Clone()}
}

func (m *Memory) Read(ctx context.Context) (types.PersistedState, error) {
	if m.ReadErr != nil {
		return types.PersistedState{}, m.ReadErr
	}
	if m.State.ProcessedFiles == nil {
		m.State.ProcessedFiles = types.ProcessedFiles{}
	}
	return m.State.Clone(), ctx.Err()
}

func (m *Memory) Write(ctx context.Context, st types.PersistedState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.State = st.Clone()
	m.Writes++
	return nil
}
