package builder

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/anvikal/askapi/internal/domain/docModel"
)

// httpMethods is the set of path-item keys treated as operations. Anything
// else under a path (parameters, servers, extensions) is skipped.
var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

// methodOrder fixes the emission order of operations within one path so the
// build sequence does not depend on source map iteration order.
var methodOrder = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// BuildDocuments transforms a dereferenced OpenAPI mapping into an ordered
// sequence of atomic documents: one operation parent per (method, path) with
// parameter, requestBody and response children, followed by one schema
// document per components.schemas entry. Pure function, no I/O.
func BuildDocuments(spec map[string]any, apiName string, specHash string) []docModel.Document {
	var docs []docModel.Document

	baseURLs := serverURLs(spec)

	paths, _ := spec["paths"].(map[string]any)
	for _, path := range sortedKeys(paths) {
		item, ok := paths[path].(map[string]any)
		if !ok {
			continue
		}
		for _, method := range methodOrder {
			var op map[string]any
			for key, v := range item {
				if strings.ToLower(key) == method {
					op, _ = v.(map[string]any)
					break
				}
			}
			if op == nil {
				continue
			}
			docs = append(docs, operationDocs(op, method, path, baseURLs, apiName, specHash)...)
		}
	}

	docs = append(docs, schemaDocs(spec, apiName, specHash)...)
	return docs
}

func operationDocs(op map[string]any, method, path string, baseURLs []string, apiName, specHash string) []docModel.Document {
	var docs []docModel.Document

	upper := strings.ToUpper(method)
	opID := getString(op, "operationId")
	if opID == "" {
		opID = strings.ReplaceAll(method+"_"+path, "/", "_")
	}
	tags := stringSlice(op["tags"])
	summary := getString(op, "summary")
	description := getString(op, "description")

	parent := strings.Join([]string{
		fmt.Sprintf("OPERATION: %s %s", upper, path),
		fmt.Sprintf("OPERATION_ID: %s", opID),
		fmt.Sprintf("TAGS: %s", orNA(strings.Join(tags, ", "))),
		fmt.Sprintf("SUMMARY: %s", orNA(summary)),
		"DESCRIPTION:",
		orNA(description),
		fmt.Sprintf("BASE_URLS: %s", orNA(strings.Join(baseURLs, ", "))),
	}, "\n")

	docs = append(docs, newDoc(parent, docModel.KindOperation, docModel.Metadata{
		"api_name":    apiName,
		"spec_hash":   specHash,
		"method":      upper,
		"path":        path,
		"operationId": opID,
		"tags":        tags,
	}))

	if params, ok := op["parameters"].([]any); ok {
		for _, p := range params {
			pm, ok := p.(map[string]any)
			if !ok {
				continue
			}
			name := getString(pm, "name")
			loc := getString(pm, "in")
			required := getBool(pm, "required")
			content := fmt.Sprintf(
				"PARAMETER\nfor: %s %s\nname: %s\nin: %s\nrequired: %t\ndescription: %s\nschema: %s",
				upper, path, name, loc, required, getString(pm, "description"), formatJSON(pm["schema"]),
			)
			docs = append(docs, newDoc(content, docModel.KindParameter, docModel.Metadata{
				"api_name":    apiName,
				"spec_hash":   specHash,
				"method":      upper,
				"path":        path,
				"operationId": opID,
				"param_in":    loc,
				"param_name":  name,
				"required":    required,
			}))
		}
	}

	if rbAny, ok := op["requestBody"]; ok {
		rb, _ := rbAny.(map[string]any)
		content := fmt.Sprintf(
			"REQUEST BODY\nfor: %s %s\nrequired: %t\ncontent: %s",
			upper, path, getBool(rb, "required"), formatJSON(rb["content"]),
		)
		docs = append(docs, newDoc(content, docModel.KindRequestBody, docModel.Metadata{
			"api_name":    apiName,
			"spec_hash":   specHash,
			"method":      upper,
			"path":        path,
			"operationId": opID,
		}))
	}

	if responses, ok := op["responses"].(map[string]any); ok {
		for _, status := range sortedKeys(responses) {
			resp, ok := responses[status].(map[string]any)
			if !ok {
				continue
			}
			content := fmt.Sprintf(
				"RESPONSE\nfor: %s %s\nstatus: %s\ndescription: %s\ncontent: %s",
				upper, path, status, getString(resp, "description"), formatJSON(resp["content"]),
			)
			docs = append(docs, newDoc(content, docModel.KindResponse, docModel.Metadata{
				"api_name":    apiName,
				"spec_hash":   specHash,
				"method":      upper,
				"path":        path,
				"operationId": opID,
				"status_code": status,
			}))
		}
	}

	return docs
}

func schemaDocs(spec map[string]any, apiName, specHash string) []docModel.Document {
	components, _ := spec["components"].(map[string]any)
	schemas, _ := components["schemas"].(map[string]any)

	var docs []docModel.Document
	for _, name := range sortedKeys(schemas) {
		schema, ok := schemas[name].(map[string]any)
		if !ok {
			continue
		}
		title := getString(schema, "title")
		if title == "" {
			title = name
		}
		content := fmt.Sprintf(
			"SCHEMA\nname: %s\ntitle: %s\ndescription:\n%s\nschema_json:\n%s",
			name, title, getString(schema, "description"), formatJSON(schema),
		)
		docs = append(docs, newDoc(content, docModel.KindSchema, docModel.Metadata{
			"api_name":    apiName,
			"spec_hash":   specHash,
			"schema_name": name,
		}))
	}
	return docs
}

func newDoc(content string, kind docModel.Kind, meta docModel.Metadata) docModel.Document {
	return docModel.Document{
		Content:  content,
		Kind:     kind,
		Metadata: meta.Compact(),
	}
}

func serverURLs(spec map[string]any) []string {
	servers, _ := spec["servers"].([]any)
	var urls []string
	for _, s := range servers {
		if sm, ok := s.(map[string]any); ok {
			if url := getString(sm, "url"); url != "" {
				urls = append(urls, url)
			}
		}
	}
	return urls
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func getString(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func getBool(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}

func stringSlice(v any) []string {
	items, _ := v.([]any)
	var out []string
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func formatJSON(v any) string {
	if v == nil {
		v = map[string]any{}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
