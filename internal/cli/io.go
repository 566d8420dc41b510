package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/andreygs/gocsp/internal/defs"
)

// maxMessageSize caps what inspect reads from a file or stdin.
const maxMessageSize = 64 << 20

// readInput reads a message from path, or from the command's stdin when
// path is empty or "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	var r io.Reader
	if path == "" || path == defs.StdinPath {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, maxMessageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if len(data) > maxMessageSize {
		return nil, fmt.Errorf("input exceeds %d bytes", maxMessageSize)
	}
	return data, nil
}

// writeOutput writes an encoded message to path, or to the command's stdout
// when path is "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == defs.StdinPath {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(filepath.Clean(path), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
