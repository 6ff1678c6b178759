package store

import "licitaradar/internal/models"

// SeedInstitutions is the default portal list used when no persisted document
// exists yet. Mirrors the dashboard's original seed set.
func SeedInstitutions() []models.Institution {
	return []models.Institution{
		// Nordeste
		{ID: "1", Name: "SENAI", State: "Rio Grande do Norte", Initials: "SENAI RN", URL: "https://www.fiern.org.br/processos-de-selecao/", Status: models.StatusOnline},
		{ID: "2", Name: "SENAC", State: "Rio Grande do Norte", Initials: "SENAC RN", URL: "https://www2.rn.senac.br/licitacao", Status: models.StatusOnline},
		{ID: "3", Name: "SESC", State: "Rio Grande do Norte", Initials: "SESC RN", URL: "http://www.sescrn.com.br/licitacoes", Status: models.StatusOnline},
		{ID: "4", Name: "SEBRAE", State: "Rio Grande do Norte", Initials: "SEBRAE RN", URL: "https://sebrae.com.br/sites/PortalSebrae/ufs/rn/sebraeaz/licitacoes-e-pregao", Status: models.StatusOnline},
		{ID: "8", Name: "SENAI", State: "Paraíba", Initials: "SENAI PB", URL: "https://licitacoes.fiepb.org.br/", Status: models.StatusOnline},
		{ID: "11", Name: "SEBRAE", State: "Paraíba", Initials: "SEBRAE PB", URL: "https://www.scf3.sebrae.com.br/PortalCf/Licitacoes", Status: models.StatusOnline},
		{ID: "14", Name: "SENAI", State: "Ceará", Initials: "SENAI CE", URL: "https://licitacoes.sfiec.org.br/", Status: models.StatusOnline},
		{ID: "16", Name: "SEBRAE", State: "Ceará", Initials: "SEBRAE CE", URL: "https://www.scf3.sebrae.com.br/PortalCf/Licitacoes", Status: models.StatusOnline},

		// Sudeste
		{ID: "18", Name: "SENAI", State: "São Paulo", Initials: "SENAI SP", URL: "https://sp.senai.br/licitacoes", Status: models.StatusOnline},
		{ID: "19", Name: "SESI", State: "São Paulo", Initials: "SESI SP", URL: "https://www.sesisp.org.br/licitacoes", Status: models.StatusOnline},
		{ID: "20", Name: "SENAC", State: "Rio de Janeiro", Initials: "SENAC RJ", URL: "https://www.rj.senac.br/licitacoes", Status: models.StatusOnline},
		{ID: "21", Name: "FIEMG", State: "Minas Gerais", Initials: "FIEMG/SENAI MG", URL: "https://www.fiemg.com.br/licitacoes/", Status: models.StatusOnline},

		// Sul
		{ID: "22", Name: "SENAI", State: "Paraná", Initials: "SENAI PR", URL: "https://www.sistemafiep.org.br/licitacoes/", Status: models.StatusOnline},
		{ID: "23", Name: "SESC", State: "Rio Grande do Sul", Initials: "SESC RS", URL: "https://www.sesc-rs.com.br/licitacoes/", Status: models.StatusOnline},

		// Centro-Oeste
		{ID: "24", Name: "SEBRAE", State: "Distrito Federal", Initials: "SEBRAE DF", URL: "https://www.sebrae.com.br/sites/PortalSebrae/ufs/df/licitacoes", Status: models.StatusOnline},

		// Norte
		{ID: "25", Name: "SENAI", State: "Amazonas", Initials: "SENAI AM", URL: "https://www.fieam.org.br/senai/licitacoes/", Status: models.StatusOnline},
	}
}
