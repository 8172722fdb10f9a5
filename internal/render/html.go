package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/goccy/go-json"

	"github.com/matsen/reelgraph/internal/dataset"
	"github.com/matsen/reelgraph/internal/engine"
)

// compiledTemplate is parsed at init time to fail fast on template errors.
var compiledTemplate *template.Template

func init() {
	compiledTemplate = template.Must(template.New("reel").Parse(htmlTemplate))
}

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Options

	// Entities supplies the full records shown when a node is clicked.
	// Nodes without a record fall back to their frame entry.
	Entities []dataset.Entity

	// MinScale and MaxScale bound wheel zoom in the page.
	MinScale float64
	MaxScale float64
}

// DefaultHTMLOptions returns default HTML generation options.
func DefaultHTMLOptions() HTMLOptions {
	return HTMLOptions{Options: DefaultOptions(), MinScale: 0.1, MaxScale: 4}
}

// templateData holds data for the HTML template.
type templateData struct {
	Title    string
	SVG      template.HTML
	Entities template.JS
	MinScale float64
	MaxScale float64
}

// WriteHTML writes a self-contained page with the frame as inline SVG.
func WriteHTML(w io.Writer, f engine.Frame, opts Options) error {
	ho := DefaultHTMLOptions()
	ho.Options = opts
	return WriteHTMLWith(w, f, ho)
}

// WriteHTMLWith is WriteHTML with entity details and zoom bounds.
func WriteHTMLWith(w io.Writer, f engine.Frame, opts HTMLOptions) error {
	page, err := GenerateHTML(f, opts)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, page)
	return err
}

// GenerateHTML renders the page to a string.
func GenerateHTML(f engine.Frame, opts HTMLOptions) (string, error) {
	if opts.MinScale <= 0 || opts.MaxScale < opts.MinScale {
		return "", fmt.Errorf("invalid zoom bounds [%g, %g]", opts.MinScale, opts.MaxScale)
	}
	if len(f.Nodes) == 0 {
		return generateEmptyHTML(), nil
	}

	// The legend lives in the page header, not the drawing.
	inner := opts.Options
	inner.Legend = false
	var svgBuf bytes.Buffer
	if err := WriteSVG(&svgBuf, f, inner); err != nil {
		return "", err
	}

	entitiesJSON, err := json.Marshal(entityTable(f, opts.Entities))
	if err != nil {
		return "", fmt.Errorf("encoding entities: %w", err)
	}

	title := opts.Title
	if title == "" {
		title = "Timeline Graph"
	}
	data := templateData{
		Title:    title,
		SVG:      template.HTML(svgBuf.String()),
		Entities: template.JS(entitiesJSON),
		MinScale: opts.MinScale,
		MaxScale: opts.MaxScale,
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// entityRow is the record shown for a clicked node.
type entityRow struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Label      string         `json:"label"`
	Role       string         `json:"role"`
	Fill       string         `json:"fill"`
	Year       *int           `json:"year,omitempty"`
	Centrality *float64       `json:"centrality,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

func entityTable(f engine.Frame, entities []dataset.Entity) map[string]entityRow {
	byID := make(map[string]*dataset.Entity, len(entities))
	for i := range entities {
		byID[entities[i].ID] = &entities[i]
	}
	table := make(map[string]entityRow, len(f.Nodes))
	for _, n := range f.Nodes {
		row := entityRow{ID: n.ID, Kind: n.Kind.String(), Label: n.Label.Text, Role: n.Role, Fill: n.Fill}
		if ent, ok := byID[n.ID]; ok {
			row.Label = ent.Label
			row.Year = ent.Year
			row.Centrality = ent.Centrality
			row.Attributes = ent.Attributes
		}
		table[n.ID] = row
	}
	return table
}

// generateEmptyHTML returns HTML for an empty dataset.
func generateEmptyHTML() string {
	return `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Timeline Graph - Empty</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      display: flex;
      justify-content: center;
      align-items: center;
      height: 100vh;
      margin: 0;
      background: #f5f5f5;
    }
    .empty-state {
      text-align: center;
      color: #666;
    }
    .empty-state h2 {
      margin-bottom: 0.5em;
      color: #333;
    }
    .empty-state code {
      background: #e0e0e0;
      padding: 2px 6px;
      border-radius: 3px;
    }
  </style>
</head>
<body>
  <div class="empty-state">
    <h2>No entities</h2>
    <p>The dataset has nothing to lay out.</p>
    <p>Import one using <code>reel import</code></p>
  </div>
</body>
</html>`
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    * {
      box-sizing: border-box;
    }
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      margin: 0;
      padding: 0;
      background: #f5f5f5;
    }
    header {
      display: flex;
      gap: 16px;
      align-items: center;
      padding: 8px 16px;
      background: white;
      border-bottom: 1px solid #ddd;
    }
    header h1 {
      font-size: 16px;
      margin: 0 16px 0 0;
    }
    .swatch {
      display: inline-block;
      width: 12px;
      height: 12px;
      border-radius: 50%;
      margin-right: 4px;
      vertical-align: middle;
    }
    #stage svg {
      display: block;
      background: white;
      cursor: grab;
    }
    #details {
      position: absolute;
      right: 16px;
      top: 56px;
      display: none;
      background: white;
      border: 1px solid #ccc;
      border-radius: 4px;
      padding: 8px 12px;
      box-shadow: 0 2px 8px rgba(0,0,0,0.15);
      max-width: 320px;
      font-size: 13px;
    }
    #details .kind {
      font-size: 10px;
      text-transform: uppercase;
      color: #888;
      margin-bottom: 4px;
    }
    #details .label {
      font-weight: bold;
      margin-bottom: 4px;
    }
    #details .detail {
      color: #555;
      margin: 2px 0;
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <span><span class="swatch" data-role="anchor"></span>Movies</span>
    <span><span class="swatch" data-role="director"></span>Directors</span>
    <span><span class="swatch" data-role="satellite"></span>Actors</span>
  </header>
  <div id="stage">{{.SVG}}</div>
  <div id="details"></div>
  <script>
    (function() {
      const entities = {{.Entities}};
      const minScale = {{.MinScale}};
      const maxScale = {{.MaxScale}};
      const svg = document.querySelector('#stage svg');
      const view = document.getElementById('view');
      const details = document.getElementById('details');

      // Legend swatches take the colours actually used in the drawing.
      Object.values(entities).forEach(function(e) {
        const sw = document.querySelector('.swatch[data-role="' + e.role + '"]');
        if (sw && !sw.style.background) sw.style.background = e.fill;
      });

      let t = parseTransform(view.getAttribute('transform'));

      function parseTransform(s) {
        const m = /translate\(([-\d.e]+),([-\d.e]+)\) scale\(([-\d.e]+)\)/.exec(s || '');
        return m ? {x: +m[1], y: +m[2], k: +m[3]} : {x: 0, y: 0, k: 1};
      }

      function apply() {
        view.setAttribute('transform', 'translate(' + t.x + ',' + t.y + ') scale(' + t.k + ')');
      }

      function escapeHtml(str) {
        if (str === undefined || str === null) return '';
        return String(str).replace(/&/g, '&amp;')
                  .replace(/</g, '&lt;')
                  .replace(/>/g, '&gt;')
                  .replace(/"/g, '&quot;');
      }

      function showDetails(e) {
        let html = '<div class="kind">' + escapeHtml(e.role) + '</div>';
        html += '<div class="label">' + escapeHtml(e.label || e.id) + '</div>';
        if (e.year !== undefined) html += '<div class="detail">Year: ' + e.year + '</div>';
        if (e.centrality !== undefined) html += '<div class="detail">Centrality: ' + e.centrality + '</div>';
        Object.keys(e.attributes || {}).sort().forEach(function(k) {
          html += '<div class="detail">' + escapeHtml(k) + ': ' + escapeHtml(JSON.stringify(e.attributes[k])) + '</div>';
        });
        details.innerHTML = html;
        details.style.display = 'block';
      }

      svg.addEventListener('wheel', function(evt) {
        evt.preventDefault();
        const rect = svg.getBoundingClientRect();
        const sx = evt.clientX - rect.left, sy = evt.clientY - rect.top;
        const k = Math.min(maxScale, Math.max(minScale, t.k * Math.pow(2, -evt.deltaY * 0.002)));
        t = {x: sx - (sx - t.x) * k / t.k, y: sy - (sy - t.y) * k / t.k, k: k};
        apply();
      }, {passive: false});

      let pan = null;
      svg.addEventListener('mousedown', function(evt) {
        if (evt.target.dataset && evt.target.dataset.id) return;
        pan = {x: evt.clientX - t.x, y: evt.clientY - t.y};
      });
      window.addEventListener('mousemove', function(evt) {
        if (!pan) return;
        t = {x: evt.clientX - pan.x, y: evt.clientY - pan.y, k: t.k};
        apply();
      });
      window.addEventListener('mouseup', function() { pan = null; });

      svg.addEventListener('click', function(evt) {
        const id = evt.target.dataset && evt.target.dataset.id;
        if (id && entities[id]) {
          showDetails(entities[id]);
        } else {
          details.style.display = 'none';
        }
      });
    })();
  </script>
</body>
</html>`
