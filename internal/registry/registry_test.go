package registry

import (
	"os"
	"path/filepath"
	"testing"
)

const testRegistry = `targets:
  - id: alpha
    display_name: Alpha
    domain: alpha.example
    pricing_url: https://alpha.example/{region}/pricing
    geo_strategy: url_region_code
    url_region_format: iso_alpha2_lower
    regions: [us, gb, de]
    status: active
  - id: beta
    display_name: Beta
    domain: beta.example
    pricing_url: https://beta.example/pricing
    geo_strategy: geo_ip
    regions: [us]
    status: active
  - id: gone
    display_name: Gone
    domain: gone.example
    pricing_url: https://gone.example/pricing
    geo_strategy: geo_ip
    regions: [us]
    status: retired
`

func writeRegistry(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "targets.yaml")
	if err := os.WriteFile(p, []byte(testRegistry), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_SkipsInactive(t *testing.T) {
	targets, err := Load(writeRegistry(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("expected 2 active targets, got %d", len(targets))
	}
	for _, tg := range targets {
		if tg.ID == "gone" {
			t.Fatalf("retired target should be filtered out")
		}
	}
}

func TestLoad_EmbeddedDefault(t *testing.T) {
	targets, err := Load("")
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	if len(targets) == 0 {
		t.Fatalf("embedded registry should have active targets")
	}
}

func TestResolveURL_RegionPlaceholder(t *testing.T) {
	tg := Target{
		PricingURL:      "https://alpha.example/{region}/pricing",
		GeoStrategy:     "url_region_code",
		URLRegionFormat: "iso_alpha2_lower",
	}
	if got := ResolveURL(tg, "GB"); got != "https://alpha.example/gb/pricing" {
		t.Fatalf("unexpected url: %s", got)
	}
	tg.URLRegionFormat = "iso_alpha2_upper"
	if got := ResolveURL(tg, "gb"); got != "https://alpha.example/GB/pricing" {
		t.Fatalf("unexpected url: %s", got)
	}
}

func TestResolveURL_GeoIPUnchanged(t *testing.T) {
	tg := Target{PricingURL: "https://beta.example/pricing", GeoStrategy: "geo_ip"}
	if got := ResolveURL(tg, "de"); got != "https://beta.example/pricing" {
		t.Fatalf("geo_ip URL should be returned as-is, got %s", got)
	}
}

func TestExpand_FiltersUnsupportedPairs(t *testing.T) {
	targets, err := Load(writeRegistry(t))
	if err != nil {
		t.Fatal(err)
	}
	items := Expand(targets, []string{"us", "de"})
	// alpha supports us+de, beta supports only us.
	if len(items) != 3 {
		t.Fatalf("expected 3 work items, got %d: %+v", len(items), items)
	}
	seen := map[string]bool{}
	for _, it := range items {
		seen[it.TargetID+"/"+it.Region] = true
		if it.URL == "" {
			t.Fatalf("work item missing resolved URL: %+v", it)
		}
	}
	for _, want := range []string{"alpha/us", "alpha/de", "beta/us"} {
		if !seen[want] {
			t.Fatalf("missing pair %s", want)
		}
	}
}

func TestFilter(t *testing.T) {
	targets, err := Load(writeRegistry(t))
	if err != nil {
		t.Fatal(err)
	}
	got := Filter(targets, []string{"beta", "nosuch"})
	if len(got) != 1 || got[0].ID != "beta" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
	if all := Filter(targets, nil); len(all) != len(targets) {
		t.Fatalf("empty id list should return all targets")
	}
}

func TestFilter_AllSelector(t *testing.T) {
	targets, err := Load(writeRegistry(t))
	if err != nil {
		t.Fatal(err)
	}
	for _, ids := range [][]string{{"all"}, {"ALL"}, {" all "}, {"beta", "all"}} {
		if got := Filter(targets, ids); len(got) != len(targets) {
			t.Fatalf("Filter(%v) = %d targets, want all %d", ids, len(got), len(targets))
		}
	}
}

func TestSelectsAll(t *testing.T) {
	cases := []struct {
		ids  []string
		want bool
	}{
		{nil, true},
		{[]string{"all"}, true},
		{[]string{"All"}, true},
		{[]string{"beta"}, false},
		{[]string{"beta", "all"}, true},
	}
	for _, tc := range cases {
		if got := SelectsAll(tc.ids); got != tc.want {
			t.Errorf("SelectsAll(%v) = %t, want %t", tc.ids, got, tc.want)
		}
	}
}

func TestAllRegions(t *testing.T) {
	targets, err := Load(writeRegistry(t))
	if err != nil {
		t.Fatal(err)
	}
	regions := AllRegions(targets)
	want := []string{"de", "gb", "us"}
	if len(regions) != len(want) {
		t.Fatalf("unexpected regions: %v", regions)
	}
	for i := range want {
		if regions[i] != want[i] {
			t.Fatalf("regions not sorted/deduped: %v", regions)
		}
	}
}
