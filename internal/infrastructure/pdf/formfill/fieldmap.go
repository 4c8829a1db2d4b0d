package formfill

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Field binds one AcroForm field of the petition template to the
// generated section that feeds it.
type Field struct {
	Name    string `yaml:"name"`
	Page    int    `yaml:"page"`
	Section string `yaml:"section"`
}

type FieldMap struct {
	Fields []Field `yaml:"fields"`
}

func LoadFieldMap(path string) (*FieldMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read field map: %w", err)
	}
	return ParseFieldMap(raw)
}

func ParseFieldMap(raw []byte) (*FieldMap, error) {
	var fm FieldMap
	if err := yaml.Unmarshal(raw, &fm); err != nil {
		return nil, fmt.Errorf("parse field map yaml: %w", err)
	}
	if len(fm.Fields) == 0 {
		return nil, fmt.Errorf("field map has no fields")
	}
	for i, f := range fm.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field %d has no name", i)
		}
		if f.Page <= 0 {
			return nil, fmt.Errorf("field %q has invalid page %d", f.Name, f.Page)
		}
		if f.Section == "" {
			return nil, fmt.Errorf("field %q has no section", f.Name)
		}
	}
	return &fm, nil
}

// Sections lists the distinct sections the map draws from, sorted.
func (fm *FieldMap) Sections() []string {
	seen := make(map[string]struct{}, len(fm.Fields))
	for _, f := range fm.Fields {
		seen[f.Section] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for section := range seen {
		out = append(out, section)
	}
	sort.Strings(out)
	return out
}

// PageSequence lists the distinct template pages in ascending order.
func (fm *FieldMap) PageSequence() []int {
	seen := make(map[int]struct{}, len(fm.Fields))
	for _, f := range fm.Fields {
		seen[f.Page] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for page := range seen {
		out = append(out, page)
	}
	sort.Ints(out)
	return out
}

func (fm *FieldMap) fieldsOnPage(page int) []Field {
	var out []Field
	for _, f := range fm.Fields {
		if f.Page == page {
			out = append(out, f)
		}
	}
	return out
}
