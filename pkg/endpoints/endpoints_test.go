package endpoints

import "testing"

func TestAllKeepsCallOrder(t *testing.T) {
	all := All()
	want := []string{DogBreedsURL, CatFactsURL, HTTPBinURL}
	if len(all) != len(want) {
		t.Fatalf("expected %d endpoints, got %d", len(want), len(all))
	}
	for i, ep := range all {
		if ep.URL != want[i] {
			t.Fatalf("endpoint %d: got %q, want %q", i, ep.URL, want[i])
		}
		if ep.ID == "" {
			t.Fatalf("endpoint %d has empty id", i)
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	first := All()
	first[0].URL = "https://changed.example"
	if All()[0].URL != DogBreedsURL {
		t.Fatalf("All must not expose shared state")
	}
}
