package registry

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	yaml "gopkg.in/yaml.v3"
)

// Target is one site whose pricing pages the batch can extract from.
type Target struct {
	ID          string   `yaml:"id"`
	DisplayName string   `yaml:"display_name"`
	Domain      string   `yaml:"domain"`
	Category    string   `yaml:"category"`
	// PricingURL may contain a {region} placeholder resolved per work item.
	PricingURL string `yaml:"pricing_url"`
	// GeoStrategy is how region targeting works for this site:
	// "url_region_code" (placeholder in the URL) or "geo_ip" (the acquisition
	// collaborator routes by region).
	GeoStrategy string `yaml:"geo_strategy"`
	// URLRegionFormat selects placeholder casing: iso_alpha2_lower (default)
	// or iso_alpha2_upper.
	URLRegionFormat string   `yaml:"url_region_format"`
	Regions         []string `yaml:"regions"`
	// Profile is an acquisition hint (which automation profile to use);
	// opaque to the core.
	Profile string `yaml:"profile"`
	Status  string `yaml:"status"`
}

// WorkItem identifies one (target, region) pair to process. Immutable;
// consumed exactly once by the orchestrator.
type WorkItem struct {
	TargetID    string
	DisplayName string
	Region      string
	URL         string
	Profile     string
}

type registryFile struct {
	Targets []Target `yaml:"targets"`
}

//go:embed targets.yaml
var defaultRegistry []byte

// Load reads a registry file, or the embedded default when path is empty.
func Load(path string) ([]Target, error) {
	data := defaultRegistry
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read registry: %w", err)
		}
		data = b
	}
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	active := make([]Target, 0, len(f.Targets))
	for _, t := range f.Targets {
		if t.Status == "" || t.Status == "active" {
			active = append(active, t)
		}
	}
	return active, nil
}

// SelectsAll reports whether a selection list names everything: either the
// empty list or the literal "all" spelling.
func SelectsAll(ids []string) bool {
	if len(ids) == 0 {
		return true
	}
	for _, id := range ids {
		if strings.EqualFold(strings.TrimSpace(id), "all") {
			return true
		}
	}
	return false
}

// Filter returns the targets matching the requested IDs, or all targets when
// the selection is empty or "all". Unknown IDs are logged and skipped.
func Filter(targets []Target, ids []string) []Target {
	if SelectsAll(ids) {
		return targets
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[strings.ToLower(strings.TrimSpace(id))] = true
	}
	out := make([]Target, 0, len(ids))
	for _, t := range targets {
		if want[t.ID] {
			out = append(out, t)
			delete(want, t.ID)
		}
	}
	for id := range want {
		log.Warn().Str("target", id).Msg("unknown target id")
	}
	return out
}

// ResolveURL resolves the pricing URL for a (target, region) pair. Sites
// using geo-IP targeting return the URL as-is; the region is handled by the
// acquisition collaborator.
func ResolveURL(t Target, region string) string {
	u := t.PricingURL
	if t.GeoStrategy != "url_region_code" || !strings.Contains(u, "{region}") {
		return u
	}
	switch t.URLRegionFormat {
	case "iso_alpha2_upper":
		return strings.ReplaceAll(u, "{region}", strings.ToUpper(region))
	default:
		return strings.ReplaceAll(u, "{region}", strings.ToLower(region))
	}
}

// AllRegions returns the sorted union of regions across targets.
func AllRegions(targets []Target) []string {
	set := map[string]bool{}
	for _, t := range targets {
		for _, r := range t.Regions {
			set[strings.ToLower(r)] = true
		}
	}
	out := make([]string, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Expand builds the work-item matrix for targets × regions, filtered to each
// target's supported region set. Unsupported pairs are skipped, not errored.
func Expand(targets []Target, regions []string) []WorkItem {
	items := make([]WorkItem, 0, len(targets)*len(regions))
	for _, t := range targets {
		supported := make(map[string]bool, len(t.Regions))
		for _, r := range t.Regions {
			supported[strings.ToLower(r)] = true
		}
		for _, region := range regions {
			region = strings.ToLower(strings.TrimSpace(region))
			if !supported[region] {
				log.Debug().Str("target", t.ID).Str("region", region).Msg("region not supported, skipping")
				continue
			}
			items = append(items, WorkItem{
				TargetID:    t.ID,
				DisplayName: t.DisplayName,
				Region:      region,
				URL:         ResolveURL(t, region),
				Profile:     t.Profile,
			})
		}
	}
	return items
}
