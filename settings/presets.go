package settings

import (
	"fmt"

	"github.com/google/uuid"
)

// Preset is a named, reusable job-submission parameter set.
type Preset struct {
	// ID is a stable identifier, assigned on creation.
	ID string `json:"id"`

	// Name is the user-facing preset name.
	Name string `json:"name"`

	// JobParams is the raw parameter string submitted for this preset.
	JobParams string `json:"job_params"`
}

// CreatePreset adds a new preset and returns it with its assigned id.
func (s *Store) CreatePreset(name, jobParams string) (Preset, error) {
	preset := Preset{
		ID:        uuid.NewString(),
		Name:      name,
		JobParams: jobParams,
	}
	err := s.Update(func(st *Settings) {
		st.Presets = append(st.Presets, preset)
	})
	if err != nil {
		return Preset{}, err
	}
	return preset, nil
}

// UpsertPreset replaces the preset with a matching id, or appends it when
// the id is unknown.
func (s *Store) UpsertPreset(preset Preset) error {
	return s.Update(func(st *Settings) {
		for i, it := range st.Presets {
			if it.ID == preset.ID {
				st.Presets[i] = preset
				return
			}
		}
		st.Presets = append(st.Presets, preset)
	})
}

// RemovePreset deletes the preset with the given id. Unknown ids are a
// no-op so stale menu entries cannot fail a removal.
func (s *Store) RemovePreset(id string) error {
	return s.Update(func(st *Settings) {
		kept := st.Presets[:0]
		for _, it := range st.Presets {
			if it.ID != id {
				kept = append(kept, it)
			}
		}
		st.Presets = kept
	})
}

// FindPreset looks a preset up by name.
func (s *Store) FindPreset(name string) (Preset, error) {
	for _, it := range s.Get().Presets {
		if it.Name == name {
			return it, nil
		}
	}
	return Preset{}, fmt.Errorf("no preset named %q", name)
}
