package driver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Checkpoint treats a stored response file as proof that its work item is
// complete.
type Checkpoint struct {
	// Validate re-fetches existing files that are not valid JSON instead of
	// trusting them.
	Validate bool
}

// Done reports whether path holds a completed item.
func (c Checkpoint) Done(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("checkpoint %s is a directory", path)
	}
	if !c.Validate {
		return true, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return json.Valid(data), nil
}

// Save writes data to path through a temporary file and rename, so an
// interrupted write never leaves a partial checkpoint behind.
func (c Checkpoint) Save(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
