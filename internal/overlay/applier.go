package overlay

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/filepatcher/internal/fsops"
	"github.com/danieljhkim/filepatcher/internal/hash"
	"github.com/danieljhkim/filepatcher/internal/logging"
	"github.com/danieljhkim/filepatcher/internal/report"
)

// Applier overwrites existing target files with patch files.
type Applier struct {
	fs     fsops.FS
	hasher hash.Hasher
	sink   report.Sink
	logger zerolog.Logger
}

// NewApplier creates an Applier. Every Apply call emits exactly one message
// to sink.
func NewApplier(fs fsops.FS, hasher hash.Hasher, sink report.Sink) *Applier {
	if sink == nil {
		sink = report.Discard
	}
	return &Applier{
		fs:     fs,
		hasher: hasher,
		sink:   sink,
		logger: logging.GetLogger("applier"),
	}
}

// Apply maps file to its destination under targetRoot and overwrites it if it
// exists. Errors are captured in the Result, never returned.
//
// Algorithm steps:
// 1. Strip sourceRoot from the file path and trim leading separators
// 2. Join onto targetRoot and normalize; reject anything that leaves it
// 3. Missing destination: report a warning and stop
// 4. Overwrite the destination bytes and report the outcome
func (a *Applier) Apply(file PatchFile, sourceRoot, targetRoot string) Result {
	relPath, err := relativeTo(file.Path, sourceRoot)
	if err != nil {
		return a.fail(Result{RelPath: file.RelPath}, err, fmt.Sprintf("Rejected patch %s: %v", file.Path, err))
	}

	result := Result{RelPath: filepath.ToSlash(relPath)}

	dest, err := fsops.JoinWithin(targetRoot, relPath)
	if err != nil {
		return a.fail(result, err, fmt.Sprintf("Rejected patch outside target root: %s", result.RelPath))
	}
	result.Destination = dest

	exists, err := a.fs.IsRegularFile(dest)
	if err != nil {
		return a.fail(result, err, fmt.Sprintf("Failed to replace %s: %v", result.RelPath, err))
	}
	if !exists {
		result.Outcome = Missing
		a.sink.Report(report.SeverityWarning, fmt.Sprintf("Target file for patch not found: %s", result.RelPath))
		return result
	}

	if err := a.fs.Overwrite(file.Path, dest); err != nil {
		return a.fail(result, err, fmt.Sprintf("Failed to replace %s: %v", result.RelPath, err))
	}

	result.Outcome = Applied
	if a.hasher != nil {
		sum, err := a.hasher.HashFile(dest)
		if err != nil {
			a.logger.Warn().Err(err).Str("path", dest).Msg("Failed to hash applied file")
		} else {
			result.Checksum = sum
		}
	}

	a.logger.Debug().Str("destination", dest).Str("checksum", result.Checksum).Msg("Patch applied")
	a.sink.Report(report.SeverityInfo, fmt.Sprintf("Patch applied: %s", result.RelPath))
	return result
}

func (a *Applier) fail(result Result, err error, msg string) Result {
	result.Outcome = Failed
	result.Err = err
	result.Error = err.Error()
	a.sink.Report(report.SeverityError, msg)
	return result
}

// relativeTo strips root from path and trims leading separators.
func relativeTo(path, root string) (string, error) {
	root = filepath.Clean(root)
	path = filepath.Clean(path)

	if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) && root != string(filepath.Separator) {
		return "", fmt.Errorf("%w: %s", ErrOutsideSource, path)
	}

	rel := strings.TrimPrefix(path, root)
	return strings.TrimLeft(rel, `/\`), nil
}
