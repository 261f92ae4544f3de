package reconcile

// The back office accumulated several historical payload shapes: early
// records use Portuguese form field names, later ones snake_case English,
// and monetary fields moved from decimal reais to integer centavos. The
// tables below are the single place a new legacy shape gets registered;
// lookup order is canonical name first, then aliases oldest-last.

var headerAliases = map[string][]string{
	"code":          {"voucher_code", "codigo"},
	"client_name":   {"cliente_nome", "contratante", "nome_cliente"},
	"client_phone":  {"cliente_telefone", "telefone", "fone"},
	"embark_place":  {"local_embarque", "embarque"},
	"seller_name":   {"vendedor", "vendedor_nome"},
	"operator_name": {"operadora", "operador"},
	"notes":         {"observacoes", "obs"},
	"status":        {"situacao"},
	"items":         {"itens", "passeios"},
	"passengers":    {"passageiros"},
}

// Monetary fields: the canonical *_centavos field holds integer minor units.
// When only a decimal alias is present the value is converted on the way in.
var moneyAliases = map[string]moneyField{
	"total_centavos": {
		centsAliases:   []string{"valor_total_centavos"},
		decimalAliases: []string{"total", "valor_total"},
	},
	"down_payment_centavos": {
		centsAliases:   []string{"entrada_centavos", "sinal_centavos"},
		decimalAliases: []string{"down_payment", "entrada", "sinal"},
	},
}

type moneyField struct {
	centsAliases   []string
	decimalAliases []string
}

var itemAliases = map[string][]string{
	"description": {"descricao", "passeio", "nome_passeio"},
	"date":        {"data", "data_passeio"},
	"time":        {"hora", "horario"},
	"quantity":    {"qty", "quantidade", "qtd"},
	"notes":       {"observacoes", "obs"},
}

var passengerAliases = map[string][]string{
	"name":      {"nome", "passageiro"},
	"phone":     {"telefone", "fone"},
	"is_infant": {"infant", "colo", "crianca_de_colo"},
}

// lookup returns the first value found under the canonical key or, failing
// that, its aliases in declared order.
func lookup(raw map[string]interface{}, canonical string, aliases map[string][]string) (interface{}, bool) {
	if v, ok := raw[canonical]; ok {
		return v, true
	}
	for _, alias := range aliases[canonical] {
		if v, ok := raw[alias]; ok {
			return v, true
		}
	}
	return nil, false
}
