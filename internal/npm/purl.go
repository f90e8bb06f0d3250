package npm

import (
	"strings"

	packageurl "github.com/package-url/packageurl-go"
)

// PURL returns the package URL for name at version, e.g.
// pkg:npm/%40babel/core@7.0.0.
func PURL(name, version string) string {
	namespace := ""
	if strings.HasPrefix(name, "@") {
		if scope, rest, ok := strings.Cut(name, "/"); ok {
			namespace, name = scope, rest
		}
	}
	return packageurl.NewPackageURL(packageurl.TypeNPM, namespace, name, version, nil, "").ToString()
}

// ParsePURL returns the package name and version of an npm package URL.
func ParsePURL(s string) (name, version string, err error) {
	p, err := packageurl.FromString(s)
	if err != nil {
		return "", "", err
	}
	if p.Type != packageurl.TypeNPM {
		return "", "", ErrInvalidName
	}
	if p.Namespace != "" {
		return p.Namespace + "/" + p.Name, p.Version, nil
	}
	return p.Name, p.Version, nil
}
