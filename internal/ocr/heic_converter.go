package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// heicArgv maps each supported converter to its argv for in -> out.
var heicArgv = map[string]func(in, out string) []string{
	"heif-convert": func(in, out string) []string { return []string{in, out} },
	"magick":       func(in, out string) []string { return []string{in, out} },
	"sips":         func(in, out string) []string { return []string{"-s", "format", "png", in, "--out", out} },
}

// HEICConverters lists the supported HEIC/HEIF converter binaries.
var HEICConverters = []string{"heif-convert", "magick", "sips"}

// convertHEICtoPNG writes dir/converted.png from a HEIC/HEIF input.
func convertHEICtoPNG(ctx context.Context, r Runner, converter, in, dir string) (string, []string, error) {
	argv, ok := heicArgv[converter]
	if !ok {
		return "", nil, fmt.Errorf("HEIC not supported: converter must be one of: %s", strings.Join(HEICConverters, " | "))
	}
	out := filepath.Join(dir, "converted.png")
	if _, errb, err := r.Run(ctx, converter, argv(in, out)...); err != nil {
		return "", warnings(errb), fmt.Errorf("%s: %w", converter, err)
	}
	if _, err := os.Stat(out); err != nil {
		return "", nil, fmt.Errorf("%s produced no output: %w", converter, err)
	}
	return out, nil, nil
}
