// Package uri classifies the location of materials by their uri scheme.
package uri

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
)

// Category of uri schemes. Each category is served by one kind of store.
type Category string

const (
	Local  Category = "local"
	Remote Category = "remote"
	S3     Category = "s3"
	SQL    Category = "sql"
	Git    Category = "git"
)

func (c Category) String() string {
	return string(c)
}

var categories = map[string]Category{
	"":      Local,
	"file":  Local,
	"local": Local,

	"http":      Remote,
	"https":     Remote,
	"zip+http":  Remote,
	"zip+https": Remote,

	"s3":     S3,
	"s3a":    S3,
	"s3n":    S3,
	"zip+s3": S3,

	"sql":        SQL,
	"postgresql": SQL,

	"git":       Git,
	"git+http":  Git,
	"git+https": Git,
}

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*$`)

// Scheme extracts the scheme of uri. Paths (including windows' "C:\...") have no scheme.
func Scheme(uri string) string {
	scheme, _, ok := strings.Cut(uri, ":")
	if !ok || len(scheme) < 2 || !schemePattern.MatchString(scheme) {
		return ""
	}
	return strings.ToLower(scheme)
}

// MapURIScheme returns the category of uri.
//
// # Returns
//
// - Category
//
// - error: ErrUnknownScheme, if the scheme is not in any category.
func MapURIScheme(uri string) (Category, error) {
	scheme := Scheme(uri)
	if c, ok := categories[scheme]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: '%s' in %s", dherr.ErrUnknownScheme, scheme, uri)
}

func is(uri string, c Category) bool {
	actual, err := MapURIScheme(uri)
	return err == nil && actual == c
}

func HasLocalScheme(uri string) bool  { return is(uri, Local) }
func HasRemoteScheme(uri string) bool { return is(uri, Remote) }
func HasS3Scheme(uri string) bool     { return is(uri, S3) }
func HasSQLScheme(uri string) bool    { return is(uri, SQL) }
func HasGitScheme(uri string) bool    { return is(uri, Git) }

func HasZipScheme(uri string) bool {
	return strings.HasPrefix(uri, "zip+")
}

// LocalPath returns the filesystem path of a local uri ("file:///x" -> "/x").
func LocalPath(uri string) string {
	switch Scheme(uri) {
	case "file", "local":
		if u, err := url.Parse(uri); err == nil {
			if u.Host != "" && u.Host != "localhost" {
				return u.Host + u.Path
			}
			return u.Path
		}
		_, p, _ := strings.Cut(uri, ":")
		return strings.TrimPrefix(p, "//")
	default:
		return uri
	}
}

// Filename returns the last path element of uri.
func Filename(uri string) string {
	p := uri
	if u, err := url.Parse(uri); err == nil && u.Scheme != "" {
		p = u.Path
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	return path.Base(strings.ReplaceAll(p, "\\", "/"))
}
