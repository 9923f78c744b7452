// Package endpoints lists the fixed upstream APIs queried on every run.
package endpoints

// Endpoint is a single upstream JSON API.
type Endpoint struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

const (
	DogBreedsURL = "https://dog.ceo/api/breeds/list/all"
	CatFactsURL  = "https://cat-fact.herokuapp.com/facts"
	HTTPBinURL   = "https://httpbin.org/get"
)

var (
	DogBreeds = Endpoint{ID: "dog-breeds", Name: "Dog breed listing", URL: DogBreedsURL}
	CatFacts  = Endpoint{ID: "cat-facts", Name: "Cat facts listing", URL: CatFactsURL}
	HTTPBin   = Endpoint{ID: "httpbin-get", Name: "httpbin GET echo", URL: HTTPBinURL}
)

// All returns the endpoints in call order.
func All() []Endpoint {
	return []Endpoint{DogBreeds, CatFacts, HTTPBin}
}
