package application

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"github.com/rios0rios0/upgradecheck/domain"
)

// ParseManifest extracts dependency declarations from package.json content.
// Names are sorted within each section because JSON object order is lost in
// decoding; the section order itself is the conventional manifest order.
func ParseManifest(content string) ([]domain.Declaration, error) {
	var doc struct {
		Dependencies         map[string]string `json:"dependencies"`
		DevDependencies      map[string]string `json:"devDependencies"`
		OptionalDependencies map[string]string `json:"optionalDependencies"`
		PeerDependencies     map[string]string `json:"peerDependencies"`
	}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	var decls []domain.Declaration
	add := func(section domain.Section, entries map[string]string) {
		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			decls = append(decls, domain.Declaration{
				Name:    name,
				Range:   entries[name],
				Section: section,
			})
		}
	}

	add(domain.SectionDependencies, doc.Dependencies)
	add(domain.SectionDevDependencies, doc.DevDependencies)
	add(domain.SectionOptionalDependencies, doc.OptionalDependencies)
	add(domain.SectionPeerDependencies, doc.PeerDependencies)

	return decls, nil
}

// Dependency sections are flat string maps, so a block runs to the first
// closing brace.
var sectionBlockPattern = regexp.MustCompile(
	`"(?:dependencies|devDependencies|optionalDependencies|peerDependencies)"\s*:\s*\{[^{}]*\}`,
)

// RewriteManifest returns new manifest content with each upgraded package's
// declared range replaced in place. Replacement is confined to the dependency
// sections, so a package name reused as a key elsewhere (scripts, resolutions)
// is left alone. Formatting and key order are preserved; only the range
// strings change. Nothing is written to disk.
func RewriteManifest(content string, upgraded map[string]string) string {
	if len(upgraded) == 0 {
		return content
	}
	return sectionBlockPattern.ReplaceAllStringFunc(content, func(block string) string {
		for name, newRange := range upgraded {
			pattern := regexp.MustCompile(`("` + regexp.QuoteMeta(name) + `"\s*:\s*")[^"]*(")`)
			block = pattern.ReplaceAllString(block, "${1}"+newRange+"${2}")
		}
		return block
	})
}
