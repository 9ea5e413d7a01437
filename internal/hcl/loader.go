package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/specialistvlad/burstgraph/internal/config"
	"github.com/specialistvlad/burstgraph/internal/ctxlog"
	"github.com/specialistvlad/burstgraph/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	conv *Converter
}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{conv: NewConverter()}
}

// Load parses every .hcl file found under paths and merges their blocks
// into one model. Blocks may be spread over files in any order; the merged
// model is validated as a whole.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := config.NewModel()

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, vb := range root.Vertices {
			v, err := l.translateVertex(vb)
			if err != nil {
				return nil, err
			}
			model.Vertices = append(model.Vertices, v)
		}
		for _, eb := range root.Edges {
			e, err := l.translateEdge(eb)
			if err != nil {
				return nil, err
			}
			model.Edges = append(model.Edges, e)
		}
		for _, tb := range root.Traversals {
			def, err := l.translateTraversal(ctx, tb)
			if err != nil {
				return nil, err
			}
			if prev, dup := model.Traversals[def.Name]; dup {
				return nil, fmt.Errorf("%s: traversal %q already defined at %s", def.Range, def.Name, prev.Range)
			}
			model.Traversals[def.Name] = def
		}
	}

	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph workspace: %w", err)
	}
	logger.Debug("HCL loading complete.", "vertices", len(model.Vertices), "edges", len(model.Edges), "traversals", len(model.Traversals))
	return model, nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl
// files found. Missing paths are skipped.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			add(p)
		}
	}
	return allFiles, nil
}
