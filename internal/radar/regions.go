package radar

import "strings"

// Region is one of the 27 Brazilian federative units.
type Region struct {
	Code string // short code, e.g. "RN"
	Name string // long form, e.g. "Rio Grande do Norte"
}

// Regions is the fixed enumeration the dashboard filters by. Institution.state
// should belong to this list, though that is not enforced on writes.
var Regions = []Region{
	{"AC", "Acre"},
	{"AL", "Alagoas"},
	{"AP", "Amapá"},
	{"AM", "Amazonas"},
	{"BA", "Bahia"},
	{"CE", "Ceará"},
	{"DF", "Distrito Federal"},
	{"ES", "Espírito Santo"},
	{"GO", "Goiás"},
	{"MA", "Maranhão"},
	{"MT", "Mato Grosso"},
	{"MS", "Mato Grosso do Sul"},
	{"MG", "Minas Gerais"},
	{"PA", "Pará"},
	{"PB", "Paraíba"},
	{"PR", "Paraná"},
	{"PE", "Pernambuco"},
	{"PI", "Piauí"},
	{"RJ", "Rio de Janeiro"},
	{"RN", "Rio Grande do Norte"},
	{"RS", "Rio Grande do Sul"},
	{"RO", "Rondônia"},
	{"RR", "Roraima"},
	{"SC", "Santa Catarina"},
	{"SP", "São Paulo"},
	{"SE", "Sergipe"},
	{"TO", "Tocantins"},
}

// StateNames returns the long-form names in enumeration order.
func StateNames() []string {
	names := make([]string, len(Regions))
	for i, r := range Regions {
		names[i] = r.Name
	}
	return names
}

// matchesRegion reports whether a free-form state string resolves to the
// region identified by code and name. Users type either the short code
// ("RN") or some variant of the long form, so we accept an exact code match
// or a case-insensitive containment of the long form ("RIO GRANDE DO NORTE",
// "Estado do Rio Grande do Norte", ...).
func matchesRegion(state, code, name string) bool {
	s := strings.TrimSpace(state)
	if s == "" {
		return false
	}
	if strings.EqualFold(s, code) {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(name))
}
