package territory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pharmdist/salesflow/internal/domain/shared"
	"gopkg.in/yaml.v3"
)

// RegionMapping maps a normalized region variation to its canonical region
type RegionMapping map[string]string

// Lookup returns the canonical region of free text, empty when unknown
func (m RegionMapping) Lookup(text string) string {
	return m[Normalize(text)]
}

type pattern struct {
	re         *regexp.Regexp
	realRegion string
	territory  string
}

// Patterns holds the compiled territory variations per mapped region, in file order
type Patterns struct {
	byRegion    map[string][]pattern
	regions     map[string]struct{}
	territories map[string]struct{}
}

// Has reports whether any pattern exists for the mapped region
func (p *Patterns) Has(region string) bool {
	_, ok := p.byRegion[region]
	return ok
}

// Match returns the real region and territory of the first pattern found in the normalized address
func (p *Patterns) Match(region, normalizedAddress string) (string, string, bool) {
	for _, pt := range p.byRegion[region] {
		if pt.re.MatchString(normalizedAddress) {
			return pt.realRegion, pt.territory, true
		}
	}
	return "", "", false
}

// IsValidRegion reports whether name is a real region of the territory file
func (p *Patterns) IsValidRegion(name string) bool {
	_, ok := p.regions[name]
	return ok
}

// IsValidTerritory reports whether name is a territory of the territory file
func (p *Patterns) IsValidTerritory(name string) bool {
	_, ok := p.territories[name]
	return ok
}

// ValidRegions returns the real regions sorted
func (p *Patterns) ValidRegions() []string {
	return sortedKeys(p.regions)
}

// ValidTerritories returns the territories sorted
func (p *Patterns) ValidTerritories() []string {
	return sortedKeys(p.territories)
}

// PatternCount returns the number of compiled variations
func (p *Patterns) PatternCount() int {
	n := 0
	for _, list := range p.byRegion {
		n += len(list)
	}
	return n
}

// LoadRegionMapping reads {region: [variations]} from a JSON or YAML file
func LoadRegionMapping(path string) (RegionMapping, error) {
	root, err := readMappingFile(path, "Region mapping")
	if err != nil {
		return nil, err
	}
	obj, ok := root.(*object)
	if !ok {
		return nil, shapeError(path, "Region mapping", "the top level must be an object of region → list of names")
	}

	mapping := make(RegionMapping)
	for i, region := range obj.keys {
		for _, v := range flatten(obj.values[i]) {
			mapping[Normalize(v)] = strings.TrimSpace(region)
		}
	}
	return mapping, nil
}

// LoadPatterns reads {mapped_region: {real_region: {territory: [[variations]]}}}
// from a JSON or YAML file and compiles every variation.
func LoadPatterns(path string) (*Patterns, error) {
	root, err := readMappingFile(path, "Territory mapping")
	if err != nil {
		return nil, err
	}
	top, ok := root.(*object)
	if !ok {
		return nil, shapeError(path, "Territory mapping", "the top level must be an object of region → real region → territory")
	}

	p := &Patterns{
		byRegion:    make(map[string][]pattern),
		regions:     make(map[string]struct{}),
		territories: make(map[string]struct{}),
	}
	for i, mapped := range top.keys {
		realRegions, ok := top.values[i].(*object)
		if !ok {
			return nil, shapeError(path, "Territory mapping", fmt.Sprintf("'%s' must map real regions to territories", mapped))
		}
		for j, realRegion := range realRegions.keys {
			p.regions[realRegion] = struct{}{}
			territories, ok := realRegions.values[j].(*object)
			if !ok {
				return nil, shapeError(path, "Territory mapping", fmt.Sprintf("'%s' → '%s' must map territories to name lists", mapped, realRegion))
			}
			for k, territory := range territories.keys {
				p.territories[territory] = struct{}{}
				for _, variation := range flatten(territories.values[k]) {
					re, err := compileVariation(variation)
					if err != nil {
						return nil, shapeError(path, "Territory mapping", fmt.Sprintf("variation '%s' cannot be compiled: %v", variation, err))
					}
					if re == nil {
						continue
					}
					p.byRegion[mapped] = append(p.byRegion[mapped], pattern{re: re, realRegion: realRegion, territory: territory})
				}
			}
		}
	}
	return p, nil
}

// object is a mapping node that keeps key order
type object struct {
	keys   []string
	values []any
}

// flatten flattens a string or arbitrarily nested lists of strings
func flatten(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, flatten(item)...)
		}
		return out
	default:
		return nil
	}
}

func readMappingFile(path, what string) (any, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, shared.NewExpectedError(shared.ErrCodeMappingFile, what+" file not found").
			WithDetails(fmt.Sprintf("❌ %s file not found: %s", what, path)).
			WithFix(
				"Ensure the file exists at the path above.",
				"Check that the file is named correctly (case-sensitive).",
				"Restore the file if it was deleted or moved.",
			)
	case errors.Is(err, fs.ErrPermission):
		return nil, shared.NewExpectedError(shared.ErrCodeMappingFile, "Permission denied").
			WithDetails(fmt.Sprintf("❌ Permission denied when trying to open file: %s", path)).
			WithFix(
				"Close the file if it is open in another program.",
				"Make sure you have read access to the file.",
			)
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if !utf8.Valid(data) {
		return nil, shared.NewExpectedError(shared.ErrCodeMappingFile, "Encoding error").
			WithDetails(fmt.Sprintf("❌ Encoding error while reading file: %s", path)).
			WithFix(
				"Ensure the file is saved with UTF-8 encoding.",
				"Re-save it in a text editor with UTF-8 selected.",
			)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, syntaxError(path, "YAML", err.Error())
		}
		if len(node.Content) == 0 {
			return nil, shapeError(path, what, "the file is empty")
		}
		return fromYAML(node.Content[0]), nil
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		v, err := decodeJSON(dec)
		if err != nil {
			var se *json.SyntaxError
			if errors.As(err, &se) {
				line, col := position(data, se.Offset)
				return nil, syntaxError(path, "JSON", fmt.Sprintf("%s at line %d, column %d", se.Error(), line, col))
			}
			return nil, syntaxError(path, "JSON", err.Error())
		}
		return v, nil
	}
}

func syntaxError(path, format, detail string) error {
	return shared.NewExpectedError(shared.ErrCodeMappingFile, "Invalid "+format+" format").
		WithDetails(
			fmt.Sprintf("❌ Invalid %s format in file: %s", format, path),
			"📍 Error: "+detail,
		).
		WithFix(
			"Open the file and fix any formatting errors (commas, brackets, indentation).",
			"Validate it with a "+format+" linter before running again.",
		)
}

func shapeError(path, what, detail string) error {
	return shared.NewExpectedError(shared.ErrCodeMappingFile, what+" has an unexpected structure").
		WithDetails(fmt.Sprintf("❌ %s: %s", path, detail)).
		WithFix("Compare the file with the documented layout and correct the nesting.")
}

// decodeJSON walks the token stream so object keys keep file order
func decodeJSON(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("unexpected end of file")
		}
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := &object{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				val, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				obj.keys = append(obj.keys, key)
				obj.values = append(obj.values, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			var list []any
			for dec.More() {
				val, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case float64:
		return fmt.Sprint(t), nil
	default:
		return nil, nil
	}
}

func fromYAML(n *yaml.Node) any {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return fromYAML(n.Content[0])
	case yaml.MappingNode:
		obj := &object{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			obj.keys = append(obj.keys, n.Content[i].Value)
			obj.values = append(obj.values, fromYAML(n.Content[i+1]))
		}
		return obj
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			list = append(list, fromYAML(c))
		}
		return list
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	default:
		return n.Value
	}
}

// position converts a byte offset into a 1-based line and column
func position(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	before := data[:offset]
	line := bytes.Count(before, []byte("\n")) + 1
	col := int(offset) - bytes.LastIndexByte(before, '\n')
	return line, col
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
