// Package visual renders molecular structures as self-contained 3Dmol.js
// viewer fragments.
package visual

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidOptions is returned for an unknown style, a malformed background
// colour, a non-positive size or empty model data.
var ErrInvalidOptions = errors.New("invalid render options")

// ScriptURL is where the viewer library is loaded from.
const ScriptURL = "https://3Dmol.org/build/3Dmol-min.js"

// Style is a 3Dmol atom style.
type Style string

const (
	StyleCartoon Style = "cartoon"
	StyleLine    Style = "line"
	StyleCross   Style = "cross"
	StyleStick   Style = "stick"
	StyleSphere  Style = "sphere"
)

// Styles lists every accepted style.
var Styles = []Style{StyleCartoon, StyleLine, StyleCross, StyleStick, StyleSphere}

// ParseStyle maps a name to a Style. Matching is case-insensitive.
func ParseStyle(name string) (Style, error) {
	s := Style(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Styles {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown style %q", ErrInvalidOptions, name)
}

// Options controls the viewer.
type Options struct {
	Style      Style
	Background string // #rgb, #rrggbb, 0xrrggbb or a CSS colour name
	Spin       bool
	Width      int
	Height     int

	// ElementID overrides the generated container id.
	ElementID string
}

// DefaultOptions matches the protein tab defaults: cartoon on white, spinning.
func DefaultOptions() Options {
	return Options{
		Style:      StyleCartoon,
		Background: "#FFFFFF",
		Spin:       true,
		Width:      400,
		Height:     400,
	}
}

var (
	hexColour  = regexp.MustCompile(`^(#|0x)([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	namedColor = regexp.MustCompile(`^[a-zA-Z]{3,20}$`)
	elementID  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
)

// Validate checks the options and fills zero sizes with defaults.
func (o *Options) Validate() error {
	if o.Style == "" {
		o.Style = StyleCartoon
	}
	if _, err := ParseStyle(string(o.Style)); err != nil {
		return err
	}
	if o.Background == "" {
		o.Background = "#FFFFFF"
	}
	if !hexColour.MatchString(o.Background) && !namedColor.MatchString(o.Background) {
		return fmt.Errorf("%w: background %q", ErrInvalidOptions, o.Background)
	}
	if o.Width == 0 {
		o.Width = 400
	}
	if o.Height == 0 {
		o.Height = 400
	}
	if o.Width < 0 || o.Height < 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidOptions, o.Width, o.Height)
	}
	if o.ElementID != "" && !elementID.MatchString(o.ElementID) {
		return fmt.Errorf("%w: element id %q", ErrInvalidOptions, o.ElementID)
	}
	return nil
}

var viewerTemplate = template.Must(template.New("viewer").Parse(`<div id="{{.ID}}" class="genesys-viewer" style="width: {{.Width}}px; height: {{.Height}}px; position: relative;"></div>
<script src="{{.ScriptURL}}"></script>
<script>
(function() {
  var element = document.getElementById({{.ID}});
  var viewer = $3Dmol.createViewer(element, {backgroundColor: {{.Background}}});
  viewer.addModel({{.Data}}, {{.Format}});
  viewer.setStyle({}, {{.StyleSpec}});
  viewer.setBackgroundColor({{.Background}});
  {{if .Spin}}viewer.spin(true);{{else}}viewer.spin(false);{{end}}
  viewer.zoomTo();
  viewer.render();
})();
</script>
`))

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// Page wraps a viewer fragment in a standalone HTML document.
func Page(title string, fragment template.HTML) (string, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{title, fragment})
	if err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}
	return buf.String(), nil
}

type viewData struct {
	ID         string
	Width      int
	Height     int
	ScriptURL  string
	Background string
	Data       string
	Format     string
	StyleSpec  map[string]any
	Spin       bool
}

// RenderProtein renders PDB text with a spectrum colour scheme.
func RenderProtein(pdb string, opts Options) (template.HTML, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}
	spec := map[string]any{string(opts.Style): map[string]any{"color": "spectrum"}}
	return render(pdb, "pdb", spec, opts)
}

// RenderMolecule renders XYZ coordinates. The default molecule view is
// static sticks on white.
func RenderMolecule(xyz string, opts Options) (template.HTML, error) {
	if opts.Style == "" {
		opts.Style = StyleStick
	}
	if opts.Background == "" {
		opts.Background = "white"
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	spec := map[string]any{string(opts.Style): map[string]any{}}
	return render(xyz, "xyz", spec, opts)
}

func render(data, format string, spec map[string]any, opts Options) (template.HTML, error) {
	if strings.TrimSpace(data) == "" {
		return "", fmt.Errorf("%w: empty %s data", ErrInvalidOptions, format)
	}
	id := opts.ElementID
	if id == "" {
		id = "genesys-viewer-" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	var buf bytes.Buffer
	err := viewerTemplate.Execute(&buf, viewData{
		ID:         id,
		Width:      opts.Width,
		Height:     opts.Height,
		ScriptURL:  ScriptURL,
		Background: normaliseColour(opts.Background),
		Data:       data,
		Format:     format,
		StyleSpec:  spec,
		Spin:       opts.Spin,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render viewer: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// normaliseColour turns 0xrrggbb into #rrggbb; 3Dmol accepts CSS forms.
func normaliseColour(c string) string {
	if strings.HasPrefix(c, "0x") {
		return "#" + c[2:]
	}
	return c
}
