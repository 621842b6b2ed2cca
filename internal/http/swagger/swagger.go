package swagger

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"

	apicontract "github.com/tuanvumaihuynh/product-inventory/api-contract"
)

const (
	// DocsPath serves the Swagger UI.
	DocsPath = "/docs"
	// SpecYAMLPath serves the embedded OpenAPI document as written.
	SpecYAMLPath = "/docs/openapi.yml"
	// SpecJSONPath serves the same document converted to JSON.
	SpecJSONPath = "/docs/openapi.json"

	swaggerUIVersion = "5.29.3"
)

var page = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@{{.Version}}/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@{{.Version}}/swagger-ui-bundle.js" crossorigin></script>
<script>
  window.onload = () => {
    window.ui = SwaggerUIBundle({
      url: '{{.SpecURL}}',
      dom_id: '#swagger-ui',
      deepLinking: true,
      displayRequestDuration: true,
    });
  };
</script>
</body>
</html>
`))

// Register mounts the docs page and both renditions of the API document.
// It fails when the embedded document does not load.
func Register(r chi.Router) error {
	specYAML := apicontract.GetSpecBytes()

	doc, err := openapi3.NewLoader().LoadFromData(specYAML)
	if err != nil {
		return fmt.Errorf("load openapi document: %w", err)
	}
	specJSON, err := doc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal openapi document: %w", err)
	}

	title := "API docs"
	if doc.Info != nil && doc.Info.Title != "" {
		title = doc.Info.Title
	}

	var html strings.Builder
	if err := page.Execute(&html, map[string]string{
		"Title":   title,
		"Version": swaggerUIVersion,
		"SpecURL": SpecYAMLPath,
	}); err != nil {
		return fmt.Errorf("render swagger page: %w", err)
	}
	pageBytes := []byte(html.String())

	r.Get(DocsPath, serve("text/html; charset=utf-8", pageBytes))
	r.Get(SpecYAMLPath, serve("application/yaml", specYAML))
	r.Get(SpecJSONPath, serve("application/json", specJSON))

	return nil
}

func serve(contentType string, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck
		w.Write(body)
	}
}
