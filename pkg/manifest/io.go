package manifest

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/pelletier/go-toml/v2"
)

// Load reads and validates a manifest from a TOML file.
func Load(path string) (*Manifest, error) {
	logger := logging.GetLogger("manifest")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrManifestNotFound, "manifest not found: %s", path)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read manifest %s", path)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestParse, "invalid TOML in manifest %s", path)
	}

	if m.Packages.Keep == nil {
		m.Packages.Keep = make(map[string]Entry)
	}
	if m.Packages.Remove == nil {
		m.Packages.Remove = make(map[string]Entry)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("path", path).
		Int("keep", len(m.Packages.Keep)).
		Int("remove", len(m.Packages.Remove)).
		Msg("Manifest loaded")

	return &m, nil
}

// Save writes the manifest atomically: a temp file in the target
// directory followed by an atomic rename, so a crash mid-write never
// leaves a half-written manifest behind.
func Save(m *Manifest, path string) error {
	logger := logging.GetLogger("manifest")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create manifest directory %s", dir)
	}

	data, err := toml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, errors.ErrManifestWrite, "failed to serialize manifest")
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*.tmp")
	if err != nil {
		return errors.Wrap(err, errors.ErrManifestWrite, "failed to create temp manifest file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, errors.ErrManifestWrite, "failed to write temp manifest file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, errors.ErrManifestWrite, "failed to close temp manifest file")
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, errors.ErrManifestWrite, "failed to replace manifest %s", path)
	}

	logger.Debug().Str("path", path).Int("packages", m.PackageCount()).Msg("Manifest saved")
	return nil
}

// Exists reports whether a manifest file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Require loads the manifest or fails with a configuration error that
// points the user at `popctl init`.
func Require(path string) (*Manifest, error) {
	m, err := Load(path)
	if err != nil {
		if errors.IsErrorCode(err, errors.ErrManifestNotFound) {
			return nil, errors.Wrapf(err, errors.ErrManifestNotFound,
				"no manifest at %s; run 'popctl init' to create one from the current system", path)
		}
		return nil, err
	}
	return m, nil
}
