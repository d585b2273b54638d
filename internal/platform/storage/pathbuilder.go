package storage

import (
	"fmt"
	"path"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// AssetPurpose captures high-level intent for storage layout decisions.
type AssetPurpose string

const (
	PurposeProductImage AssetPurpose = "product-image"
	PurposeCatalogData  AssetPurpose = "catalog-data"
	PurposeCompanyData  AssetPurpose = "company-data"
)

// PathParams provide required identifiers to compose storage object keys.
type PathParams struct {
	DataPrefix string
	UploadID   string
	FileName   string
	Extension  string
}

// PathBuilder composes the object path for a given asset purpose.
type PathBuilder func(PathParams) (string, error)

var (
	pathBuilders = map[AssetPurpose]PathBuilder{
		PurposeProductImage: buildProductImagePath,
		PurposeCatalogData:  dataDocumentPath("products.json"),
		PurposeCompanyData:  dataDocumentPath("company-info.json"),
	}
	pathBuildersMu sync.RWMutex
)

// RegisterPathBuilder overrides or registers a builder for a specific purpose.
func RegisterPathBuilder(purpose AssetPurpose, builder PathBuilder) {
	pathBuildersMu.Lock()
	defer pathBuildersMu.Unlock()
	if builder == nil {
		delete(pathBuilders, purpose)
		return
	}
	pathBuilders[purpose] = builder
}

// BuildObjectPath resolves the storage object path for the given purpose.
func BuildObjectPath(purpose AssetPurpose, params PathParams) (string, error) {
	pathBuildersMu.RLock()
	builder, ok := pathBuilders[purpose]
	pathBuildersMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("storage: unsupported asset purpose %q", purpose)
	}
	return builder(params)
}

func buildProductImagePath(params PathParams) (string, error) {
	uploadID, err := validateSegment("uploadID", params.UploadID)
	if err != nil {
		return "", err
	}
	ext, err := validateSegment("extension", strings.TrimPrefix(strings.ToLower(params.Extension), "."))
	if err != nil {
		return "", err
	}
	base := strings.TrimSuffix(strings.TrimSpace(params.FileName), path.Ext(strings.TrimSpace(params.FileName)))
	slug := Slugify(base)
	if slug == "" {
		slug = "imagen"
	}
	return fmt.Sprintf("products/%s-%s.%s", slug, strings.ToLower(uploadID), ext), nil
}

func dataDocumentPath(name string) PathBuilder {
	return func(params PathParams) (string, error) {
		prefix := strings.Trim(strings.TrimSpace(params.DataPrefix), "/")
		if prefix == "" {
			return "", fmt.Errorf("storage: dataPrefix is required")
		}
		if strings.Contains(prefix, "..") {
			return "", fmt.Errorf("storage: dataPrefix contains invalid traversal sequence")
		}
		return prefix + "/" + name, nil
	}
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases s, strips diacritics, and collapses anything outside [a-z0-9] into single dashes.
func Slugify(s string) string {
	folded, _, err := transform.String(accentStripper, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		folded = strings.ToLower(s)
	}
	var b strings.Builder
	dash := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func validateSegment(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("storage: %s is required", name)
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("storage: %s contains invalid path characters", name)
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("storage: %s contains invalid traversal sequence", name)
	}
	return value, nil
}
