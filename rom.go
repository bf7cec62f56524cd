package chipvm

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// ReadRom reads a raw ROM image. It never reads more than one byte past
// MaxProgramSize, so an oversized stream fails fast with ErrRomTooLarge.
func ReadRom(r io.Reader) ([]byte, error) {
	program, err := io.ReadAll(io.LimitReader(r, MaxProgramSize+1))
	if err != nil {
		return nil, errors.Wrapf(ErrRomIo, "%v", err)
	}

	if len(program) > MaxProgramSize {
		return nil, ErrRomTooLarge
	}

	return program, nil
}

// LoadRomFile opens path and reads it with ReadRom.
func LoadRomFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrRomIo, "%s: %v", path, err)
	}
	defer f.Close()

	program, err := ReadRom(f)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}

	return program, nil
}
