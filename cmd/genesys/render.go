package main

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"genesys/internal/upload"
	"genesys/internal/visual"
)

var (
	renderOut        string
	renderStyle      string
	renderBackground string
	renderSpin       bool
	renderWidth      int
	renderHeight     int
	renderFragment   bool
)

// renderCmd writes a 3D viewer page
var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render a PDB structure or XYZ molecule as a 3D viewer page",
	Long: `Writes an HTML page embedding a 3Dmol.js viewer. PDB files default to a
spinning cartoon on white; .xyz molecules default to static sticks.

Example:
  genesys render 1crn.pdb --style sphere --background black -o 1crn.html`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "", "Output file (default stdout)")
	renderCmd.Flags().StringVar(&renderStyle, "style", "", "cartoon, stick, sphere or line")
	renderCmd.Flags().StringVar(&renderBackground, "background", "", "Background colour")
	renderCmd.Flags().BoolVar(&renderSpin, "spin", true, "Spin the model")
	renderCmd.Flags().IntVar(&renderWidth, "width", 0, "Viewer width in pixels")
	renderCmd.Flags().IntVar(&renderHeight, "height", 0, "Viewer height in pixels")
	renderCmd.Flags().BoolVar(&renderFragment, "fragment", false, "Write only the embeddable fragment")
}

func runRender(cmd *cobra.Command, args []string) error {
	f, err := readUpload(args[0], cfg.Server.MaxUploadBytes)
	if err != nil {
		return friendly(err)
	}
	text, err := upload.Decode(f.Content)
	if err != nil {
		return friendly(err)
	}

	molecule := strings.EqualFold(filepath.Ext(f.Name), ".xyz")
	if !molecule {
		ft, err := upload.ClassifyFile(f)
		if err != nil {
			return friendly(err)
		}
		if ft != upload.FileTypePDB {
			return friendly(fmt.Errorf("%w: rendering needs a PDB or XYZ file, got %s", upload.ErrUnsupportedFileType, ft))
		}
	}

	opts := visual.DefaultOptions()
	if molecule {
		opts = visual.Options{}
	}
	if renderStyle != "" {
		if opts.Style, err = visual.ParseStyle(renderStyle); err != nil {
			return err
		}
	}
	if renderBackground != "" {
		opts.Background = renderBackground
	}
	if cmd.Flags().Changed("spin") || !molecule {
		opts.Spin = renderSpin
	}
	if renderWidth > 0 {
		opts.Width = renderWidth
	}
	if renderHeight > 0 {
		opts.Height = renderHeight
	}

	var fragment template.HTML
	if molecule {
		fragment, err = visual.RenderMolecule(text, opts)
	} else {
		fragment, err = visual.RenderProtein(text, opts)
	}
	if err != nil {
		return err
	}

	out := string(fragment)
	if !renderFragment {
		if out, err = visual.Page(f.Name, fragment); err != nil {
			return err
		}
	}

	if renderOut == "" {
		fmt.Fprint(os.Stdout, out)
		return nil
	}
	if err := os.WriteFile(renderOut, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", renderOut, err)
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", style(labelStyle, "wrote"), style(pathStyle, renderOut))
	return nil
}
