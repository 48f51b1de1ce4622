package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	errNotArray  = errors.New("response is not a JSON array")
	errNotObject = errors.New("response is not a JSON object")
)

// DecodeSummaries decodes a project list response. Missing or mistyped
// fields decode as empty strings (revision as 0).
func DecodeSummaries(data []byte) ([]ProjectSummary, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, errNotArray
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("decode project list: %w", err)
	}
	out := make([]ProjectSummary, 0, len(elems))
	for _, raw := range elems {
		obj := asObject(raw)
		out = append(out, ProjectSummary{
			Slug:        stringField(obj, "slug"),
			Name:        stringField(obj, "name"),
			Description: stringField(obj, "description"),
			Revision:    intField(obj, "revision"),
			IconURL:     stringField(objectField(objectField(obj, "icon_map"), "64x64"), "url"),
		})
	}
	return out, nil
}

// DecodeDetail decodes a project revision response. slug and revision are
// the identity the detail was requested for.
func DecodeDetail(slug string, revision int, data []byte) (ProjectDetail, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return ProjectDetail{}, errNotObject
	}
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return ProjectDetail{}, fmt.Errorf("decode project detail: %w", err)
	}
	version := objectField(root, "version")
	meta := objectField(version, "app_metadata")
	d := ProjectDetail{
		Slug:        slug,
		Revision:    revision,
		Name:        stringField(meta, "name"),
		Description: stringField(meta, "description"),
		Author:      stringField(meta, "author"),
		Version:     stringField(meta, "version"),
		PublishedAt: stringField(version, "published_at"),
	}
	var files []json.RawMessage
	if raw, ok := version["files"]; ok && json.Unmarshal(raw, &files) == nil {
		d.Files = make([]ProjectFile, 0, len(files))
		for _, f := range files {
			obj := asObject(f)
			d.Files = append(d.Files, ProjectFile{
				FullPath: stringField(obj, "full_path"),
				SHA256:   stringField(obj, "sha256"),
				URL:      stringField(obj, "url"),
			})
		}
	}
	return d, nil
}

// asObject returns raw as an object, or nil when it is anything else.
func asObject(raw json.RawMessage) map[string]json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj
}

func objectField(obj map[string]json.RawMessage, key string) map[string]json.RawMessage {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	return asObject(raw)
}

func stringField(obj map[string]json.RawMessage, key string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func intField(obj map[string]json.RawMessage, key string) int {
	raw, ok := obj[key]
	if !ok {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0
	}
	return int(f)
}
