package formfill

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/vmoroz/petition-assistant/internal/core/ports"
)

// Filler writes the generated sections into the petition form template
// field by field, reporting page progress as it goes.
type Filler struct {
	templatePath string
	fieldMap     *FieldMap
	storage      ports.ObjectStorage
}

func New(templatePath, fieldMapPath string, storage ports.ObjectStorage) (*Filler, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return nil, fmt.Errorf("petition template: %w", err)
	}
	fm, err := LoadFieldMap(fieldMapPath)
	if err != nil {
		return nil, err
	}
	return &Filler{
		templatePath: templatePath,
		fieldMap:     fm,
		storage:      storage,
	}, nil
}

func (f *Filler) SectionNames() []string {
	return f.fieldMap.Sections()
}

func (f *Filler) Fill(
	ctx context.Context,
	caseID string,
	values map[string]string,
	onPage func(page, total int),
) (string, error) {
	pages := f.fieldMap.PageSequence()

	type textField struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	var fields []textField
	for i, page := range pages {
		if onPage != nil {
			onPage(i+1, len(pages))
		}
		for _, field := range f.fieldMap.fieldsOnPage(page) {
			value, ok := values[field.Section]
			if !ok {
				continue
			}
			fields = append(fields, textField{Name: field.Name, Value: value})
		}
	}
	if len(fields) == 0 {
		return "", fmt.Errorf("no template fields match the generated sections")
	}

	workDir, err := os.MkdirTemp("", "formfill-*")
	if err != nil {
		return "", fmt.Errorf("create fill workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	formJSON, err := json.Marshal(map[string]any{
		"forms": []map[string]any{{"textfield": fields}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal form data: %w", err)
	}
	jsonPath := filepath.Join(workDir, "form.json")
	if err := os.WriteFile(jsonPath, formJSON, 0o600); err != nil {
		return "", fmt.Errorf("write form data: %w", err)
	}

	outPath := filepath.Join(workDir, "filled.pdf")
	if err := api.FillFormFile(f.templatePath, jsonPath, outPath, nil); err != nil {
		return "", fmt.Errorf("fill form template: %w", err)
	}

	filled, err := os.Open(outPath)
	if err != nil {
		return "", fmt.Errorf("open filled form: %w", err)
	}
	defer filled.Close()

	key := fmt.Sprintf("%s_petition.pdf", caseID)
	if err := f.storage.Save(ctx, key, filled); err != nil {
		return "", fmt.Errorf("store filled form: %w", err)
	}
	return key, nil
}
