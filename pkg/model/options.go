package model

// Option is a selectable value with its display label.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// OptionSet is an ordered list of options. Presentation order is the slice
// order; membership checks ignore it.
type OptionSet []Option

// Values returns the option values in presentation order.
func (s OptionSet) Values() []string {
	out := make([]string, 0, len(s))
	for _, opt := range s {
		out = append(out, opt.Value)
	}
	return out
}

// Labels returns the option labels in presentation order, falling back to
// the value when a label is empty.
func (s OptionSet) Labels() []string {
	out := make([]string, 0, len(s))
	for _, opt := range s {
		if opt.Label == "" {
			out = append(out, opt.Value)
			continue
		}
		out = append(out, opt.Label)
	}
	return out
}

// Contains reports whether value is one of the options.
func (s OptionSet) Contains(value string) bool {
	for _, opt := range s {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Order sorts values into presentation order, dropping unknown tags.
func (s OptionSet) Order(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	selected := make(map[string]struct{}, len(values))
	for _, v := range values {
		selected[v] = struct{}{}
	}
	var out []string
	for _, opt := range s {
		if _, ok := selected[opt.Value]; ok {
			out = append(out, opt.Value)
		}
	}
	return out
}

// DefaultDepartments mirrors the department list shipped with the form.
func DefaultDepartments() OptionSet {
	return OptionSet{
		{Value: "financeiro", Label: "Financeiro"},
		{Value: "comercial", Label: "Comercial"},
		{Value: "rh", Label: "Recursos Humanos"},
		{Value: "juridico", Label: "Jurídico"},
		{Value: "diretoria", Label: "Diretoria"},
		{Value: "ti", Label: "Tecnologia da Informação"},
		{Value: "outro", Label: "Outro"},
	}
}

// DefaultPreferences mirrors the communication tags shipped with the form.
func DefaultPreferences() OptionSet {
	return OptionSet{
		{Value: "boletos", Label: "Boletos"},
		{Value: "notas_fiscais", Label: "Notas fiscais"},
		{Value: "comunicados", Label: "Comunicados"},
		{Value: "eventos", Label: "Eventos"},
		{Value: "pesquisas", Label: "Pesquisas"},
	}
}
