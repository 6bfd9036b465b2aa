package helpers

import (
	"net/url"
	"strings"
)

func IsInsideNodeModules(path string) bool {
	for {
		// This is written in a platform-independent manner because it's run on
		// user-specified paths which can be arbitrary non-file-system things. So
		// for example Windows paths may end up being used on Unix or URLs may end
		// up being used on Windows. Be consistently agnostic to which kind of
		// slash is used on all platforms.
		slash := strings.LastIndexAny(path, "/\\")
		if slash == -1 {
			return false
		}
		dir, base := path[:slash], path[slash+1:]
		if base == "node_modules" {
			return true
		}
		path = dir
	}
}

func IsFileURL(fileURL *url.URL) bool {
	return fileURL.Scheme == "file" && (fileURL.Host == "" || fileURL.Host == "localhost") && strings.HasPrefix(fileURL.Path, "/")
}

// Turns Windows-style paths with volumes into URL-style paths:
//
//	"/Users/User/Desktop/x.ts" => "file:///Users/User/Desktop/x.ts"
//	"C:\\Users\\User\\x.ts" => "file:///C:/Users/User/x.ts"
func FileURLFromFilePath(filePath string) *url.URL {
	filePath = strings.ReplaceAll(filePath, "\\", "/")
	if !strings.HasPrefix(filePath, "/") {
		filePath = "/" + filePath
	}
	return &url.URL{Scheme: "file", Path: filePath}
}

// Append a trailing slash so that resolving a relative URL against the
// directory includes the directory itself:
//
//	"/Users/User/Desktop" => "file:///Users/User/Desktop/"
func DirURLFromFilePath(dirPath string) *url.URL {
	dirURL := FileURLFromFilePath(dirPath)
	if !strings.HasSuffix(dirURL.Path, "/") {
		dirURL.Path += "/"
	}
	return dirURL
}

// Convert URL-style paths back into Windows-style paths if needed:
//
//	"/C:/Users/User/foo.js" => "C:\\Users\\User\\foo.js"
func FilePathFromFileURL(fileURL *url.URL, isWindows bool) string {
	path := fileURL.Path
	if isWindows {
		path = strings.TrimPrefix(path, "/")
		path = strings.ReplaceAll(path, "/", "\\")
	}
	return path
}

// ToPosixPath converts a platform path to one that can be embedded in an
// import specifier.
func ToPosixPath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
