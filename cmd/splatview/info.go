package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/splatview/pkg/math3d"
	"github.com/taigrr/splatview/pkg/models"
	"github.com/taigrr/splatview/pkg/viewer"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>...",
		Short: "Display asset information",
		Long:  "Decode one or more asset files and print their format, size, primitive counts and bounding box.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := inspectAll(cmd.Context(), args)
			if err != nil {
				return err
			}
			for i, in := range infos {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				in.print(cmd.OutOrStdout())
			}
			return nil
		},
	}
}

// assetInfo is what info reports for one file.
type assetInfo struct {
	Path      string
	Size      int64
	Kind      string
	Count     int
	Vertices  int
	Triangles int
	Min, Max  math3d.Vec3
}

// inspectAll decodes paths concurrently. Results keep the order of paths.
func inspectAll(ctx context.Context, paths []string) ([]assetInfo, error) {
	out := make([]assetInfo, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			in, err := inspect(p)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			out[i] = in
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func inspect(path string) (assetInfo, error) {
	if !viewer.SupportedFormat(path) {
		return assetInfo{}, fmt.Errorf("unsupported format %q (use %s)", filepath.Ext(path), strings.Join(viewer.SupportedExtensions, ", "))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return assetInfo{}, fmt.Errorf("cannot access file: %w", err)
	}
	a, err := models.Decode(path, data)
	if err != nil {
		return assetInfo{}, fmt.Errorf("decode: %w", err)
	}

	in := assetInfo{Path: path, Size: int64(len(data)), Count: a.Count()}
	in.Min, in.Max = a.Bounds()
	switch a := a.(type) {
	case *models.SplatCloud:
		in.Kind = "splat cloud"
	case *models.Mesh:
		in.Kind = "mesh"
		in.Vertices = a.VertexCount()
		in.Triangles = a.TriangleCount()
	}
	return in, nil
}

func (in assetInfo) print(w io.Writer) {
	size := in.Max.Sub(in.Min)
	center := in.Min.Add(in.Max).Scale(0.5)

	fmt.Fprintf(w, "File:       %s\n", filepath.Base(in.Path))
	fmt.Fprintf(w, "Format:     %s\n", strings.ToUpper(strings.TrimPrefix(models.Ext(in.Path), ".")))
	fmt.Fprintf(w, "Size:       %s\n", humanSize(in.Size))
	fmt.Fprintf(w, "Kind:       %s\n", in.Kind)
	if in.Kind == "mesh" {
		fmt.Fprintf(w, "Vertices:   %d\n", in.Vertices)
		fmt.Fprintf(w, "Triangles:  %d\n", in.Triangles)
	} else {
		fmt.Fprintf(w, "Splats:     %d\n", in.Count)
	}
	fmt.Fprintf(w, "Bounds:     (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n",
		in.Min.X, in.Min.Y, in.Min.Z, in.Max.X, in.Max.Y, in.Max.Z)
	fmt.Fprintf(w, "Dimensions: %.3f x %.3f x %.3f\n", size.X, size.Y, size.Z)
	fmt.Fprintf(w, "Center:     (%.3f, %.3f, %.3f)\n", center.X, center.Y, center.Z)
}
