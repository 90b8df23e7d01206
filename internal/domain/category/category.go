// Package category holds the closed set of work-item categories.
//
// The set is fixed at build time: categories map one-to-one onto the
// situation codes of the upstream case-management system and new codes
// only appear together with a release.
package category

// ID identifies a work-item category. Values mirror the upstream
// situation codes and must not be invented at runtime.
type ID int

// Known category ids.
const (
	SaleAllotment     ID = 62
	SaleInstallment   ID = 66
	SaleCaixa         ID = 30
	ContractDrafting  ID = 16
	Signed            ID = 31
	ExpansionApproval ID = 84
)

// Info describes a category for presentation purposes.
type Info struct {
	ID    ID     `json:"id"`
	Label string `json:"label"`
	// Text and Background are the presentation color pair, as hex strings.
	Text       string `json:"text"`
	Background string `json:"background"`
}

// table is the static category configuration. Order is the display order.
var table = []Info{
	{ID: SaleAllotment, Label: "ANÁLISE VENDA LOTEAMENTO", Text: "#080b01", Background: "#7bb581"},
	{ID: SaleInstallment, Label: "ANÁLISE VENDA PARCELAMENTO INCORPORADORA", Text: "#060606", Background: "#5db144"},
	{ID: SaleCaixa, Label: "ANÁLISE VENDA CAIXA", Text: "#080707", Background: "#94f67b"},
	{ID: ContractDrafting, Label: "CONFECÇÃO DE CONTRATO", Text: "#0e0000", Background: "#e5ee78"},
	{ID: Signed, Label: "ASSINADO", Text: "#010b04", Background: "#f49f51"},
	{ID: ExpansionApproval, Label: "APROVAÇÃO EXPANSÃO", Text: "#000000", Background: "#46c49e"},
}

// All returns the category table in display order. The returned slice is a
// copy; callers may not mutate the configuration.
func All() []Info {
	out := make([]Info, len(table))
	copy(out, table)
	return out
}

// IDs returns all known category ids in display order.
func IDs() []ID {
	out := make([]ID, len(table))
	for i, info := range table {
		out[i] = info.ID
	}
	return out
}

// Lookup returns the category info for id. The second return is false for
// unknown ids.
func Lookup(id ID) (Info, bool) {
	for _, info := range table {
		if info.ID == id {
			return info, true
		}
	}
	return Info{}, false
}

// Known reports whether id is part of the configured category set.
func Known(id ID) bool {
	_, ok := Lookup(id)
	return ok
}

// Label returns the display label for id, or "Geral" for unknown ids,
// matching what the desk view shows for stale records.
func Label(id ID) string {
	if info, ok := Lookup(id); ok {
		return info.Label
	}
	return "Geral"
}
