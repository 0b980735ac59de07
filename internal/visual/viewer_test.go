package visual

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const tinyPDB = "HEADER    TEST\nATOM      1  CA  GLY A   1       1.000   2.000   3.000  1.00  0.00           C\nEND\n"

// parseFragment returns the container div and the script elements.
func parseFragment(t *testing.T, fragment string) (div *html.Node, scripts []*html.Node) {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(fragment))
	require.NoError(t, err)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "div":
				div = n
			case "script":
				scripts = append(scripts, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return div, scripts
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func TestRenderProtein(t *testing.T) {
	opts := DefaultOptions()
	opts.ElementID = "viewer1"
	opts.Style = StyleStick
	opts.Background = "#000"

	out, err := RenderProtein(tinyPDB, opts)
	require.NoError(t, err)

	div, scripts := parseFragment(t, string(out))
	require.NotNil(t, div)
	assert.Equal(t, "viewer1", attr(div, "id"))
	assert.Contains(t, attr(div, "style"), "width: 400px; height: 400px")

	require.Len(t, scripts, 2)
	assert.Equal(t, ScriptURL, attr(scripts[0], "src"))

	js := scripts[1].FirstChild.Data
	assert.Contains(t, js, `document.getElementById("viewer1")`)
	assert.Contains(t, js, `viewer.addModel("HEADER    TEST\nATOM`)
	assert.Contains(t, js, `"pdb"`)
	assert.Contains(t, js, `{"stick":{"color":"spectrum"}}`)
	assert.Contains(t, js, `viewer.setBackgroundColor("#000")`)
	assert.Contains(t, js, "viewer.spin(true);")
	assert.Contains(t, js, "viewer.zoomTo();")
}

func TestRenderProtein_EscapesModelData(t *testing.T) {
	out, err := RenderProtein("ATOM </script><script>alert(1)</script>", DefaultOptions())
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<script>alert(1)")

	_, scripts := parseFragment(t, string(out))
	assert.Len(t, scripts, 2)
}

func TestRenderProtein_GeneratedIDsAreUnique(t *testing.T) {
	a, err := RenderProtein(tinyPDB, DefaultOptions())
	require.NoError(t, err)
	b, err := RenderProtein(tinyPDB, DefaultOptions())
	require.NoError(t, err)

	divA, _ := parseFragment(t, string(a))
	divB, _ := parseFragment(t, string(b))
	assert.True(t, strings.HasPrefix(attr(divA, "id"), "genesys-viewer-"))
	assert.NotEqual(t, attr(divA, "id"), attr(divB, "id"))
}

func TestRenderMolecule_Defaults(t *testing.T) {
	out, err := RenderMolecule("3\nwater\nO 0 0 0\nH 0 0 1\nH 0 1 0\n", Options{ElementID: "mol"})
	require.NoError(t, err)

	_, scripts := parseFragment(t, string(out))
	require.Len(t, scripts, 2)
	js := scripts[1].FirstChild.Data
	assert.Contains(t, js, `"xyz"`)
	assert.Contains(t, js, `{"stick":{}}`)
	assert.Contains(t, js, `viewer.setBackgroundColor("white")`)
	assert.Contains(t, js, "viewer.spin(false);")
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		data string
	}{
		{"unknown style", Options{Style: "ribbon"}, tinyPDB},
		{"bad colour", Options{Background: "#12345"}, tinyPDB},
		{"script colour", Options{Background: "red;alert(1)"}, tinyPDB},
		{"negative size", Options{Width: -1}, tinyPDB},
		{"bad element id", Options{ElementID: "a b"}, tinyPDB},
		{"empty data", DefaultOptions(), "  \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RenderProtein(tt.data, tt.opts)
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}

func TestParseStyle(t *testing.T) {
	s, err := ParseStyle(" Sphere ")
	require.NoError(t, err)
	assert.Equal(t, StyleSphere, s)

	_, err = ParseStyle("surface")
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestNormaliseColour(t *testing.T) {
	assert.Equal(t, "#eeeeee", normaliseColour("0xeeeeee"))
	assert.Equal(t, "white", normaliseColour("white"))
}

func TestPage(t *testing.T) {
	fragment, err := RenderProtein(tinyPDB, DefaultOptions())
	require.NoError(t, err)

	page, err := Page("1ABC <structure>", fragment)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>1ABC &lt;structure&gt;</title>")
	div, scripts := parseFragment(t, page)
	require.NotNil(t, div)
	assert.Len(t, scripts, 2)
}
