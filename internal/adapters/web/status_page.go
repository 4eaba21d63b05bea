package web

import (
	"context"
	"fmt"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

// StatusView is the data shown on the status page.
type StatusView struct {
	Service     string
	AuthEnabled bool
	// TweetsToday is -1 when no stats source is available.
	TweetsToday int64
	GeneratedAt string
}

var statusTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Service}}</title></head>
<body>
<main>
  <h1>{{.Service}}</h1>
  <dl>
    <dt>Webhook</dt><dd><code>POST /webhook</code></dd>
    <dt>Authentication</dt><dd>{{if .AuthEnabled}}enabled{{else}}<strong>disabled</strong> (no API key configured){{end}}</dd>
    <dt>Tweets today</dt><dd>{{if ge .TweetsToday 0}}{{.TweetsToday}}{{else}}n/a{{end}}</dd>
  </dl>
  <p><small>Generated {{.GeneratedAt}}</small></p>
</main>
</body>
</html>
`))

// StatusPage renders the service status as HTML.
func StatusPage(v StatusView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := statusTemplate.Execute(w, v); err != nil {
			return fmt.Errorf("render status page: %w", err)
		}
		return nil
	})
}
