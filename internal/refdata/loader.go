package refdata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Sections of a PIN database file. Each maps PIN codes to records; the
// section name becomes the record region.
var Sections = []string{"bangalore", "bangalore_periphery", "mysore", "mysore_periphery"}

// LoadPINFile reads a sectioned PIN database in JSON or YAML, chosen by file
// extension. Sections that are not PIN maps (metadata blocks) are skipped.
func LoadPINFile(path string) ([]PINRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: read %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodePINYAML(data)
	default:
		return DecodePINJSON(data)
	}
}

// DecodePINJSON decodes a sectioned JSON PIN database. A section that is an
// object with PIN code keys must decode cleanly; anything else (scalars,
// arrays, metadata objects) is skipped.
func DecodePINJSON(data []byte) ([]PINRecord, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "refdata: decode json pin database")
	}

	var recs []PINRecord
	for _, section := range sortedKeys(raw) {
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(raw[section], &entries); err != nil {
			zap.L().Debug("refdata: skipping non-object section", zap.String("section", section))
			continue
		}
		out, err := sectionRecords(section, entries, func(m json.RawMessage, r *PINRecord) error {
			return json.Unmarshal(m, r)
		})
		if err != nil {
			return nil, err
		}
		recs = append(recs, out...)
	}
	return recs, nil
}

// DecodePINYAML decodes a sectioned YAML PIN database with the same section
// rules as DecodePINJSON.
func DecodePINYAML(data []byte) ([]PINRecord, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "refdata: decode yaml pin database")
	}

	var recs []PINRecord
	for _, section := range sortedKeys(raw) {
		node := raw[section]
		if node.Kind != yaml.MappingNode {
			zap.L().Debug("refdata: skipping non-object section", zap.String("section", section))
			continue
		}
		var entries map[string]yaml.Node
		if err := node.Decode(&entries); err != nil {
			return nil, eris.Wrapf(err, "refdata: section %s", section)
		}
		out, err := sectionRecords(section, entries, func(n yaml.Node, r *PINRecord) error {
			return n.Decode(r)
		})
		if err != nil {
			return nil, err
		}
		recs = append(recs, out...)
	}
	return recs, nil
}

// sectionRecords decodes the PIN-keyed entries of one section. Keys that are
// not PIN codes are ignored; a section with no PIN keys yields nothing.
func sectionRecords[E any](section string, entries map[string]E, decode func(E, *PINRecord) error) ([]PINRecord, error) {
	var out []PINRecord
	for _, key := range sortedKeys(entries) {
		if !ValidPIN(key) {
			continue
		}
		var r PINRecord
		if err := decode(entries[key], &r); err != nil {
			return nil, eris.Wrapf(err, "refdata: section %s: pin %s", section, key)
		}
		r.PIN = strings.TrimSpace(key)
		if r.Region == "" {
			r.Region = section
		}
		out = append(out, r)
	}
	return out, nil
}

// WritePINFile writes recs as a sectioned PIN database, JSON or YAML by
// extension. Records are grouped by region, falling back to their city.
func WritePINFile(path string, recs []PINRecord) error {
	sections := make(map[string]map[string]PINRecord)
	for _, r := range recs {
		section := r.Region
		if section == "" {
			section = r.City
		}
		if section == "" {
			section = CityForPIN(r.PIN)
		}
		if sections[section] == nil {
			sections[section] = make(map[string]PINRecord)
		}
		pin := r.PIN
		r.PIN = ""
		sections[section][pin] = r
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(sections)
	default:
		data, err = json.MarshalIndent(sections, "", "  ")
	}
	if err != nil {
		return eris.Wrap(err, "refdata: encode pin database")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "refdata: write %s", path)
	}
	return nil
}

// ValidPIN reports whether pin is a six digit Indian PIN code.
func ValidPIN(pin string) bool {
	pin = strings.TrimSpace(pin)
	if len(pin) != 6 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
