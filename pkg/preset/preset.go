// Package preset adapts the teacher's pkg/framework/state.Manager —
// binary save/load over a param.Registry keyed by uint32 ID — to the
// engine's name-keyed param.Catalog. It is not the JSON preset format
// spec.md defers to an external collaborator (spec.md §1/§6 Non-goals
// exclude the *format*); it demonstrates the setter-by-name control-plane
// contract that layer would call, and cmd/enginedemo's --preset flag
// exercises it directly.
package preset

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/wavecore/synth/pkg/param"
)

const magicHeader = "WVCRSYN"

// Manager saves and loads every Value in a Catalog by name, so a preset
// file written against one catalog version can still apply the
// parameters it recognizes to a later, differently-shaped catalog
// (unknown names on load are skipped; missing names on save simply don't
// appear in the file).
type Manager struct {
	version uint32
	catalog *param.Catalog
}

// NewManager creates a Manager over the given Catalog.
func NewManager(catalog *param.Catalog) *Manager {
	return &Manager{version: 1, catalog: catalog}
}

// Save writes every catalog parameter's normalized value to w, in
// registration order.
func (m *Manager) Save(w io.Writer) error {
	if _, err := io.WriteString(w, magicHeader); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, m.version); err != nil {
		return err
	}

	values := m.catalog.All()
	if err := binary.Write(w, binary.LittleEndian, uint32(len(values))); err != nil {
		return err
	}

	for _, v := range values {
		if err := writeString(w, v.Name); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, v.Normalized()); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a preset written by Save and applies every recognized
// parameter name to the Manager's catalog. Unknown names are skipped for
// forward compatibility with presets saved against a larger catalog.
func (m *Manager) Load(r io.Reader) error {
	header := make([]byte, len(magicHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return err
	}
	if string(header) != magicHeader {
		return fmt.Errorf("preset: invalid file header")
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return err
	}
	if version > m.version {
		return fmt.Errorf("preset: version %d is newer than supported version %d", version, m.version)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return err
	}

	for i := uint32(0); i < count; i++ {
		name, err := readString(r)
		if err != nil {
			return err
		}
		var normalized float64
		if err := binary.Read(r, binary.LittleEndian, &normalized); err != nil {
			return err
		}
		if v, ok := m.catalog.Get(name); ok {
			v.SetNormalized(normalized)
		}
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
