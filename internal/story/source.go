package story

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"storyboard/internal/services"
)

// ReadSource returns the raw narrative text at path. A missing file is
// ErrNotFound; an unreadable, non-regular or blank file is ErrConfiguration.
func ReadSource(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", services.Wrap(services.ErrConfiguration, "text", "read source", "no source path given", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, "text", "read source", "source file "+path+" does not exist", err)
		}
		return "", services.Wrap(services.ErrConfiguration, "text", "read source", "stat "+path, err)
	}
	if !info.Mode().IsRegular() {
		return "", services.Wrap(services.ErrConfiguration, "text", "read source", path+" is not a regular file", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "text", "read source", "read "+path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", services.Wrap(services.ErrConfiguration, "text", "read source", path+" is empty", nil)
	}
	return string(data), nil
}
