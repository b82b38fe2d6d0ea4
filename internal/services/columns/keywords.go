package columns

import "strings"

// Keyword sets cover both the Spanish headers of DIAN/contable exports and
// their common English equivalents.
var (
	idKeywords          = []string{"folio", "numero", "número", "documento", "factura", "id", "number", "document", "invoice"}
	valueKeywords       = []string{"valor", "monto", "importe", "total", "debito", "débito", "credito", "crédito", "value", "amount", "debit", "credit"}
	dateKeywords        = []string{"fecha", "date"}
	descriptionKeywords = []string{"descripcion", "descripción", "concepto", "detalle", "observacion", "observación", "description", "concept", "detail", "note"}
	accountKeywords     = []string{"cuenta", "account"}

	// Extra fallback keywords for the contable document column.
	contableIDKeywords = []string{"numero", "documento", "cruce", "factura", "comprobante"}
)

func nameContainsAny(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IsDateColumn reports whether a column name looks date-bearing. The
// normalizer uses it to decide which columns get date parsing.
func IsDateColumn(name string) bool {
	return nameContainsAny(name, dateKeywords)
}

// IsPlaceholderName reports whether a column name is an auto-generated
// placeholder rather than a real header.
func IsPlaceholderName(name string) bool {
	return strings.Contains(strings.ToLower(name), "unnamed")
}
