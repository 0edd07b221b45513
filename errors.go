package antrsvp

// errors.go holds the sentinel errors of the package and the helpers
// that aggregate errors found while loading an experiment.

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrUnknownEvent is returned for event kinds the control plane has no handler for
	ErrUnknownEvent = errors.New("unknown event kind")

	// ErrUnknownNode flags a node id absent from the topology
	ErrUnknownNode = errors.New("unknown node")

	// ErrInvalidContent flags an event whose content does not match its kind
	ErrInvalidContent = errors.New("event content does not match its kind")

	// ErrInvalidParameter flags a configuration value out of range
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ReportErrs folds the non-nil errors of the list into a single error,
// nil when there are none
func ReportErrs(errs []error) error {
	var merr *multierror.Error
	for _, err := range errs {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}

// CheckReadableFiles makes sure every named file exists and may be read
func CheckReadableFiles(names []string) (bool, error) {
	return CheckFiles(names, true)
}

// CheckOutputFiles makes sure the directory of every named file exists
func CheckOutputFiles(names []string) (bool, error) {
	return CheckFiles(names, false)
}

// CheckFiles probes the file system for the directories holding the named
// files and, when checkExistence is set, for the files themselves
func CheckFiles(names []string, checkExistence bool) (bool, error) {
	errs := []error{}
	for _, name := range names {
		if len(name) == 0 {
			continue
		}
		directory, _ := filepath.Split(name)
		if len(directory) == 0 {
			continue
		}
		if _, err := os.Stat(directory); err != nil {
			errs = append(errs, fmt.Errorf("directory of %s: %w", name, err))
		}
	}

	if checkExistence {
		for _, name := range names {
			if len(name) == 0 {
				continue
			}
			fileInfo, err := os.Stat(name)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if fileInfo.IsDir() {
				errs = append(errs, fmt.Errorf("%s is a directory", name))
			}
		}
	}

	rtnerr := ReportErrs(errs)
	return rtnerr == nil, rtnerr
}
