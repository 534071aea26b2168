package handlers

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"html/template"
	"net/http"
	"sort"
	"strings"
)

//go:embed openapi.json
var openAPISpec []byte

type docRoute struct {
	Method  string
	Path    string
	Summary string
}

// docRoutes lists the operations in openapi.json, sorted by path then method.
func docRoutes(spec []byte) ([]docRoute, error) {
	var doc struct {
		Paths map[string]map[string]struct {
			Summary string `json:"summary"`
		} `json:"paths"`
	}
	if err := json.Unmarshal(spec, &doc); err != nil {
		return nil, err
	}
	var out []docRoute
	for path, ops := range doc.Paths {
		for method, op := range ops {
			out = append(out, docRoute{Method: strings.ToUpper(method), Path: path, Summary: op.Summary})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out, nil
}

var docsTemplate = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <title>mediahub API Docs</title>
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <style>
      body { margin: 0; padding: 0; font-family: sans-serif; }
      nav { padding: 12px 24px; border-bottom: 1px solid #ddd; }
      nav code { margin-right: 8px; }
      redoc { display: block; height: 100vh; }
    </style>
  </head>
  <body>
    <nav>
      <strong>mediahub routes</strong>
      <ul>
        {{- range .}}
        <li><code>{{.Method}} {{.Path}}</code>{{.Summary}}</li>
        {{- end}}
      </ul>
    </nav>
    <redoc spec-url="/v1/openapi.json"></redoc>
    <script src="https://cdn.jsdelivr.net/npm/redoc@2.2.0/bundles/redoc.standalone.js"></script>
  </body>
</html>`))

var docsHTML = mustRenderDocs(openAPISpec)

func mustRenderDocs(spec []byte) []byte {
	routes, err := docRoutes(spec)
	if err != nil {
		panic("handlers: embedded openapi.json: " + err.Error())
	}
	var buf bytes.Buffer
	if err := docsTemplate.Execute(&buf, routes); err != nil {
		panic("handlers: render docs: " + err.Error())
	}
	return buf.Bytes()
}

func (a *App) OpenAPIJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPISpec)
}

// OpenAPIDocs serves Redoc with a static route index for clients without
// JavaScript.
func (a *App) OpenAPIDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(docsHTML)
}
