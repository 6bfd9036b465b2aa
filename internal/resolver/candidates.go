package resolver

import (
	"net/url"

	"github.com/esmkit/esmkit/internal/fs"
	"github.com/esmkit/esmkit/internal/helpers"
)

// MatchCandidates appends each extension in order to "base" and returns the
// URL of the first one that names an existing file. A miss is an expected
// outcome, not an error.
func MatchCandidates(fsys fs.FS, base *url.URL, extensionOrder []string) (*url.URL, bool) {
	isWindows := !fsys.IsAbs("/")
	for _, ext := range extensionOrder {
		candidate := *base
		candidate.Path += ext
		candidate.RawPath = ""
		if fs.IsFile(fsys, helpers.FilePathFromFileURL(&candidate, isWindows)) {
			return &candidate, true
		}
	}
	return nil, false
}
