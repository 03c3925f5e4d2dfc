package doctor

import (
	"context"
	"fmt"
	"os"
)

// DataDirCheck verifies that the data directory exists and accepts writes.
type DataDirCheck struct {
	dir string
}

// NewDataDirCheck creates a new data directory check.
func NewDataDirCheck(dir string) *DataDirCheck {
	return &DataDirCheck{dir: dir}
}

func (c *DataDirCheck) Name() string {
	return "Data Directory"
}

func (c *DataDirCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	info, err := os.Stat(c.dir)
	switch {
	case os.IsNotExist(err):
		result.add(c.dir, StatusFail, "directory does not exist")
		return result
	case err != nil:
		result.add(c.dir, StatusFail, fmt.Sprintf("inaccessible: %v", err))
		return result
	case !info.IsDir():
		result.add(c.dir, StatusFail, "path is not a directory")
		return result
	}

	f, err := os.CreateTemp(c.dir, ".doctor-*")
	if err != nil {
		result.add(c.dir, StatusFail, fmt.Sprintf("not writable: %v", err))
		return result
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	result.add(c.dir, StatusPass, "")
	return result
}
