package geocode

import (
	"testing"

	"github.com/Harshthakur24/Env-Dashboard/internal/models"
)

func TestBuildGeocodeQuery(t *testing.T) {
	q := BuildGeocodeQuery("Manav Rachna University", "India")
	if q != "Manav Rachna University, India" {
		t.Fatalf("unexpected query: %s", q)
	}
	if q := BuildGeocodeQuery("  Site A  ", ""); q != "Site A" {
		t.Fatalf("unexpected query: %s", q)
	}
}

func TestShouldGeocodeSkipWhenCoordsExist(t *testing.T) {
	lat := 28.45
	lon := 77.28
	site := models.SiteLocation{Location: "Manav Rachna University", Lat: &lat, Lon: &lon}
	if ShouldGeocode(site, false) {
		t.Fatalf("expected geocode to be skipped when coordinates exist")
	}
	if !ShouldGeocode(site, true) {
		t.Fatalf("expected geocode when force is true")
	}
	if !ShouldGeocode(models.SiteLocation{Location: "Site B"}, false) {
		t.Fatalf("expected geocode for a site without coordinates")
	}
}
