package messages

import "strings"

const (
	LocalePortuguese = "pt-BR"
	LocaleEnglish    = "en"
)

var portuguese = map[Key]string{
	Validating:     "Validando dados...",
	Sending:        "Enviando dados... (tentativa {{ attempt }})",
	Succeeded:      "✔ Dados enviados com sucesso! Obrigado pela atualização.",
	Failed:         "❌ Não foi possível enviar os dados após várias tentativas. Verifique sua conexão e tente novamente.",
	Rejected:       "❌ O servidor recusou os dados{% if reason %} ({{ reason|safe }}){% endif %}. Revise as informações e tente novamente.",
	Unexpected:     "❌ Erro inesperado. Tente novamente.",
	SubmitInFlight: "Um envio já está em andamento.",
	ResetPrompt:    "Dados enviados com sucesso! Deseja preencher outro formulário?",
	CapacityError:  "Máximo de {{ max }} contatos permitidos",
	RequiredEntry:  "O contato {{ position }} é obrigatório e não pode ser removido",
	UnknownEntry:   "O contato {{ position }} não existe",
	RemoveConfirm:  "Tem certeza que deseja remover o Contato {{ position }}?",
	ContactTitle:   "Contato {{ position }}",
	EmailRequired:  "E-mail do contato {{ position }} é obrigatório",
	EmailInvalid:   "E-mail do contato {{ position }} não é válido",
	PhoneRequired:  "Telefone do contato {{ position }} é obrigatório",
	PhoneTooShort:  "Telefone do contato {{ position }} deve ter ao menos {{ min }} dígitos",
	DeptRequired:   "Departamento do contato {{ position }} é obrigatório",
	EmailDeptReq:   "Departamento de e-mail do contato {{ position }} é obrigatório",
	PhoneDeptReq:   "Departamento de telefone do contato {{ position }} é obrigatório",
	DeptUnknown:    "Departamento do contato {{ position }} não é uma opção válida",
	PrefsRequired:  "Selecione pelo menos um tipo de comunicação para o contato {{ position }}",
	PrefUnknown:    "Tipo de comunicação desconhecido para o contato {{ position }}",
	EmailsEqual:    "Os dois primeiros e-mails não podem ser iguais",
	RevenueReq:     "Faturamento bruto anual é obrigatório",
	EmployeesReq:   "Quantidade de funcionários é obrigatória",
	EmployeesNaN:   "Quantidade de funcionários deve ser um número inteiro",
	EmployeesNeg:   "Quantidade de funcionários deve ser um número positivo",

	LabelCompanyID:   "CNPJ",
	LabelCompanyName: "Razão social",
	LabelRevenue:     "Faturamento bruto anual",
	LabelEmployees:   "Quantidade de funcionários",
	LabelEmail:       "E-mail do contato {{ position }}",
	LabelPhone:       "Telefone do contato {{ position }}",
	LabelDepartment:  "Departamento do contato {{ position }}",
	LabelEmailDept:   "Departamento responsável pelo e-mail do contato {{ position }}",
	LabelPhoneDept:   "Departamento responsável pelo telefone do contato {{ position }}",
	LabelPreferences: "Comunicações que o contato {{ position }} deve receber",
	MenuPrompt:       "O que deseja fazer?",
	MenuSubmit:       "Enviar",
	MenuAdd:          "Adicionar contato",
	MenuEdit:         "Editar contato",
	MenuRemove:       "Remover contato",
	MenuCompany:      "Editar dados da empresa",
	MenuQuit:         "Sair",
	PickContact:      "Qual contato?",
}

var english = map[Key]string{
	Validating:     "Validating data...",
	Sending:        "Sending data... (attempt {{ attempt }})",
	Succeeded:      "✔ Data sent successfully! Thank you for the update.",
	Failed:         "❌ Could not send the data after several attempts. Check your connection and try again.",
	Rejected:       "❌ The server rejected the data{% if reason %} ({{ reason|safe }}){% endif %}. Review the information and try again.",
	Unexpected:     "❌ Unexpected error. Please try again.",
	SubmitInFlight: "A submission is already in progress.",
	ResetPrompt:    "Data sent successfully! Would you like to fill in another form?",
	CapacityError:  "At most {{ max }} contacts are allowed",
	RequiredEntry:  "Contact {{ position }} is required and cannot be removed",
	UnknownEntry:   "Contact {{ position }} does not exist",
	RemoveConfirm:  "Remove contact {{ position }}?",
	ContactTitle:   "Contact {{ position }}",
	EmailRequired:  "Email of contact {{ position }} is required",
	EmailInvalid:   "Email of contact {{ position }} is not valid",
	PhoneRequired:  "Phone of contact {{ position }} is required",
	PhoneTooShort:  "Phone of contact {{ position }} must have at least {{ min }} digits",
	DeptRequired:   "Department of contact {{ position }} is required",
	EmailDeptReq:   "Email department of contact {{ position }} is required",
	PhoneDeptReq:   "Phone department of contact {{ position }} is required",
	DeptUnknown:    "Department of contact {{ position }} is not a valid option",
	PrefsRequired:  "Select at least one communication type for contact {{ position }}",
	PrefUnknown:    "Unknown communication type for contact {{ position }}",
	EmailsEqual:    "The first two emails must be different",
	RevenueReq:     "Annual gross revenue is required",
	EmployeesReq:   "Employee count is required",
	EmployeesNaN:   "Employee count must be a whole number",
	EmployeesNeg:   "Employee count must not be negative",

	LabelCompanyID:   "Company tax id (CNPJ)",
	LabelCompanyName: "Company name",
	LabelRevenue:     "Annual gross revenue",
	LabelEmployees:   "Number of employees",
	LabelEmail:       "Email of contact {{ position }}",
	LabelPhone:       "Phone of contact {{ position }}",
	LabelDepartment:  "Department of contact {{ position }}",
	LabelEmailDept:   "Department handling the email of contact {{ position }}",
	LabelPhoneDept:   "Department handling the phone of contact {{ position }}",
	LabelPreferences: "Communications contact {{ position }} should receive",
	MenuPrompt:       "What would you like to do?",
	MenuSubmit:       "Submit",
	MenuAdd:          "Add contact",
	MenuEdit:         "Edit contact",
	MenuRemove:       "Remove contact",
	MenuCompany:      "Edit company details",
	MenuQuit:         "Quit",
	PickContact:      "Which contact?",
}

func builtin(locale string) (map[Key]string, string) {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "en", "en-us", "en_us", "english":
		return english, LocaleEnglish
	default:
		return portuguese, LocalePortuguese
	}
}
