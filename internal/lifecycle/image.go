package lifecycle

import (
	"errors"
	"strings"
)

// DefaultImageVersion is assumed when an image reference carries no tag.
const DefaultImageVersion = "latest"

// ErrInvalidImage is returned for references without a registry path.
var ErrInvalidImage = errors.New("invalid image reference")

// ParsedImage is a container image reference split into repository and tag.
type ParsedImage struct {
	BaseURL string
	Version string
}

// String reassembles the reference.
func (p ParsedImage) String() string {
	return p.BaseURL + ":" + p.Version
}

// ParseImage splits "registry/path/name:tag" into "registry/path/name" and
// "tag". The reference must contain at least one '/'.
func ParseImage(url string) (ParsedImage, error) {
	slash := strings.LastIndex(url, "/")
	if slash < 0 {
		return ParsedImage{}, ErrInvalidImage
	}

	base, last := url[:slash], url[slash+1:]
	name, version, found := strings.Cut(last, ":")
	if !found {
		version = DefaultImageVersion
	} else if tag, _, more := strings.Cut(version, ":"); more {
		version = tag
	}

	return ParsedImage{
		BaseURL: base + "/" + name,
		Version: version,
	}, nil
}
