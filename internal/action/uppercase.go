package action

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"transmute/internal/logging"
	"transmute/internal/service"
)

// Uppercase rewrites the input artifact into the output directory. JSON
// objects get a "_transformed" marker, anything else is upper-cased.
type Uppercase struct{}

func (Uppercase) Execute(ctx context.Context, req Request) error {
	in, out, err := ioPaths(req)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("uppercase: %w", err)
	}

	data := bytes.ToUpper(raw)
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		obj["_transformed"] = "uppercase"
		if b, err := json.Marshal(obj); err == nil {
			data = b
		}
	}

	dst := filepath.Join(out, filepath.Base(in))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("uppercase: %w", err)
	}
	logging.FromContext(ctx).Debug("uppercase wrote artifact", "input", in, "output", dst)
	return nil
}

// Copy copies the input artifact into the output directory unchanged.
type Copy struct{}

func (Copy) Execute(ctx context.Context, req Request) error {
	in, out, err := ioPaths(req)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	dst := filepath.Join(out, filepath.Base(in))
	if err := os.WriteFile(dst, raw, 0o644); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}

// ioPaths reads the input and output_dir parameters. A relative output_dir
// is placed under the workspace service; the directory is created.
func ioPaths(req Request) (string, string, error) {
	in, err := req.String("input")
	if err != nil {
		return "", "", err
	}
	out, err := req.String("output_dir")
	if err != nil {
		return "", "", err
	}
	if !filepath.IsAbs(out) {
		ws, err := service.Lookup[string](req.Services, service.Workspace)
		if err != nil {
			return "", "", err
		}
		out = filepath.Join(ws, out)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", "", err
	}
	return in, out, nil
}

func init() {
	Register("uppercase", func() Action { return Uppercase{} })
	Register("copy", func() Action { return Copy{} })
}
