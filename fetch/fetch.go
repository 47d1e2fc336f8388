// Package fetch resolves dataset locations to local folders. Local paths
// pass through; remote sources (https, git, s3, gcs and the other
// go-getter schemes, including auto-extracted archives) are fetched into
// a temporary folder the caller owns until Close.
package fetch

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-getter"

	"github.com/voltmesh/gridx/errors"
	"github.com/voltmesh/gridx/logger"
)

// Source is a resolved dataset location.
type Source struct {
	// LocalPath is the folder holding the dataset
	LocalPath string

	// OriginalInput is the location as the caller gave it
	OriginalInput string

	// Fetched reports whether the dataset was copied from a remote
	// source; fetched sources are deleted by Close
	Fetched bool

	cleanup func()
}

// Close releases any temporary folder the fetch created. Safe to call on
// local sources and to call twice.
func (s *Source) Close() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

// Resolve turns input into a local dataset folder. A zero timeout means
// no limit on remote transfers.
func Resolve(ctx context.Context, input string, timeout time.Duration) (*Source, error) {
	if input == "" {
		return nil, errors.New("empty dataset location")
	}
	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}

	detected, err := getter.Detect(input, pwd, getter.Detectors)
	if err != nil {
		return nil, errors.Wrapf(err, "detect source type of %q", input)
	}
	parsed, err := url.Parse(detected)
	if err != nil {
		return nil, errors.Wrapf(err, "parse detected source %q", detected)
	}

	if parsed.Scheme == "file" || parsed.Scheme == "" {
		return resolveLocal(input, parsed, pwd)
	}
	return fetchRemote(ctx, input, detected, timeout)
}

func resolveLocal(input string, parsed *url.URL, pwd string) (*Source, error) {
	localPath := input
	if parsed.Scheme == "file" {
		localPath = parsed.Path
	}
	if strings.HasPrefix(localPath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "expand home directory")
		}
		localPath = filepath.Join(home, localPath[2:])
	}
	if !filepath.IsAbs(localPath) {
		localPath = filepath.Join(pwd, localPath)
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset location %s", localPath)
	}
	if !info.IsDir() {
		return nil, errors.Newf("dataset location %s is not a folder", localPath)
	}

	return &Source{
		LocalPath:     localPath,
		OriginalInput: input,
	}, nil
}

// FetchTo retrieves input into dest, which must not already exist for
// directory sources. Unlike Resolve, the caller owns dest permanently.
func FetchTo(ctx context.Context, input, dest string, timeout time.Duration) error {
	if input == "" {
		return errors.New("empty dataset location")
	}
	if dest == "" {
		return errors.New("empty destination")
	}
	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}
	detected, err := getter.Detect(input, pwd, getter.Detectors)
	if err != nil {
		return errors.Wrapf(err, "detect source type of %q", input)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	client := &getter.Client{
		Ctx:     ctx,
		Src:     detected,
		Dst:     dest,
		Pwd:     pwd,
		Mode:    getter.ClientModeDir,
		Getters: getter.Getters,
	}
	if err := client.Get(); err != nil {
		return errors.Wrapf(err, "fetch dataset %q", input)
	}
	return nil
}

func fetchRemote(ctx context.Context, input, detected string, timeout time.Duration) (*Source, error) {
	tempDir, err := os.MkdirTemp("", "gridx-fetch-*")
	if err != nil {
		return nil, errors.Wrap(err, "create fetch folder")
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger.Logger.Infow("Fetching dataset",
		"source", input,
		"detected", detected,
		"destination", tempDir,
	)

	client := &getter.Client{
		Ctx:     ctx,
		Src:     detected,
		Dst:     tempDir,
		Mode:    getter.ClientModeDir,
		Getters: getter.Getters,
	}
	if err := client.Get(); err != nil {
		os.RemoveAll(tempDir)
		return nil, errors.Wrapf(err, "fetch dataset %q", input)
	}

	return &Source{
		LocalPath:     tempDir,
		OriginalInput: input,
		Fetched:       true,
		cleanup:       func() { os.RemoveAll(tempDir) },
	}, nil
}
