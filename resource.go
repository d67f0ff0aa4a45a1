package lineage

import (
	"net/url"
	"sort"
	"strings"

	"github.com/jward/lineage/internal/fault"
)

// MaxURILength bounds the length of a resource URI.
const MaxURILength = 2048

// Resource is the identity of a graph subject or object. The zero value is
// not a valid resource; construct with NewResource.
type Resource struct {
	uri  string
	host string
	path string
}

// NewResource validates uri and wraps it. The URI must parse, carry a
// non-empty path, and the path must not end in "/".
func NewResource(uri string) (Resource, error) {
	if len(uri) > MaxURILength {
		return Resource{}, fault.New(fault.DataSize, "uri is %d bytes, limit %d", len(uri), MaxURILength)
	}
	u, err := url.Parse(uri)
	if err != nil {
		return Resource{}, fault.Wrap(fault.DataFormat, err, "malformed uri %q", uri)
	}
	if u.Path == "" {
		return Resource{}, fault.New(fault.DataFormat, "uri %q has no path", uri)
	}
	if strings.HasSuffix(u.Path, "/") {
		return Resource{}, fault.New(fault.DataFormat, "uri %q path ends in /", uri)
	}
	return Resource{uri: uri, host: u.Host, path: u.Path}, nil
}

// MustResource is NewResource for known-good literals; it panics on error.
func MustResource(uri string) Resource {
	r, err := NewResource(uri)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Resource) String() string { return r.uri }

// URI returns the wrapped URI.
func (r Resource) URI() string { return r.uri }

// IsZero reports whether r is the zero Resource.
func (r Resource) IsZero() bool { return r.uri == "" }

// UniqueID returns host + path, a stable identifier usable as a relative
// file path.
func (r Resource) UniqueID() string { return r.host + r.path }

// Compare orders resources lexicographically by URI.
func (r Resource) Compare(o Resource) int { return strings.Compare(r.uri, o.uri) }

func (r Resource) Less(o Resource) bool { return r.uri < o.uri }

// MarshalText renders the URI, so resources work as JSON map keys.
func (r Resource) MarshalText() ([]byte, error) { return []byte(r.uri), nil }

// SortResources sorts rs in place by URI.
func SortResources(rs []Resource) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].uri < rs[j].uri })
}
