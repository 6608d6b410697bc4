// Package geo resolves a country code from a caller IP address.
package geo

// Resolver maps an IP address to an ISO 3166-1 alpha-2 country code.
type Resolver interface {
	Country(ip string) string
}

// Static always answers with a fixed country code. Stands in until a
// real geo-IP database is wired up.
type Static struct {
	Code string
}

func NewStatic() Static {
	return Static{Code: "US"}
}

func (s Static) Country(_ string) string {
	return s.Code
}
