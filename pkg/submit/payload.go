package submit

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-contactform/pkg/mask"
	"github.com/goliatone/go-contactform/pkg/model"
)

// PhoneFormat selects how phones are serialized.
type PhoneFormat string

const (
	// PhoneMasked sends the display mask, e.g. "(11) 98765-4321".
	PhoneMasked PhoneFormat = "masked"
	// PhoneDigits sends digits only, e.g. "11987654321".
	PhoneDigits PhoneFormat = "digits"
)

// TimestampLayout matches JavaScript's Date.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

const (
	DefaultFormVersion = "2.0"
	DefaultSource      = "formulario_web"
)

// DefaultClientInfo describes this client to the intake service.
func DefaultClientInfo() string {
	return fmt.Sprintf("go-contactform/%s (%s; %s)", DefaultFormVersion, runtime.GOOS, runtime.GOARCH)
}

// Payload is the JSON document posted to the intake endpoint.
type Payload struct {
	CompanyID     string           `json:"companyId"`
	CompanyName   string           `json:"companyName"`
	AnnualRevenue string           `json:"annualRevenue"`
	EmployeeCount int              `json:"employeeCount"`
	Contacts      []ContactPayload `json:"contacts"`
	Timestamp     string           `json:"timestamp"`
	ClientInfo    string           `json:"clientInfo"`
	FormVersion   string           `json:"formVersion"`
	Source        string           `json:"source,omitempty"`
	SubmissionID  string           `json:"submissionId,omitempty"`
}

// ContactPayload is one serialized contact entry.
type ContactPayload struct {
	Position        int      `json:"position"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Department      string   `json:"department"`
	EmailDepartment string   `json:"emailDepartment,omitempty"`
	PhoneDepartment string   `json:"phoneDepartment,omitempty"`
	Preferences     []string `json:"preferences"`
}

// PayloadOptions controls serialization details.
type PayloadOptions struct {
	FormVersion  string
	Source       string
	ClientInfo   string
	PhoneFormat  PhoneFormat
	SubmissionID string
	Now          time.Time
	// Preferences fixes the serialized tag order; nil keeps entry order.
	Preferences model.OptionSet
}

// BuildPayload serializes a snapshot. Blank entries are omitted but keep
// their original position numbers; an unparsable employee count becomes 0.
func BuildPayload(state model.FormState, opts PayloadOptions) Payload {
	if opts.FormVersion == "" {
		opts.FormVersion = DefaultFormVersion
	}
	if opts.ClientInfo == "" {
		opts.ClientInfo = DefaultClientInfo()
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	payload := Payload{
		CompanyID:     strings.TrimSpace(state.CompanyID),
		CompanyName:   strings.TrimSpace(state.CompanyName),
		AnnualRevenue: strings.TrimSpace(state.AnnualRevenue),
		EmployeeCount: parseEmployeeCount(state.EmployeeCount),
		Contacts:      make([]ContactPayload, 0, len(state.Contacts)),
		Timestamp:     opts.Now.UTC().Format(TimestampLayout),
		ClientInfo:    opts.ClientInfo,
		FormVersion:   opts.FormVersion,
		Source:        opts.Source,
		SubmissionID:  opts.SubmissionID,
	}

	for i, entry := range state.Contacts {
		if entry.IsBlank() {
			continue
		}
		position := entry.Position
		if position < 1 {
			position = i + 1
		}
		prefs := entry.Preferences
		if len(opts.Preferences) > 0 {
			prefs = opts.Preferences.Order(prefs)
		}
		if prefs == nil {
			prefs = []string{}
		}
		payload.Contacts = append(payload.Contacts, ContactPayload{
			Position:        position,
			Email:           strings.TrimSpace(entry.Email),
			Phone:           serializePhone(entry.Phone, opts.PhoneFormat),
			Department:      strings.TrimSpace(entry.Department),
			EmailDepartment: strings.TrimSpace(entry.EmailDepartment),
			PhoneDepartment: strings.TrimSpace(entry.PhoneDepartment),
			Preferences:     append([]string(nil), prefs...),
		})
	}
	return payload
}

func serializePhone(phone string, format PhoneFormat) string {
	phone = strings.TrimSpace(phone)
	if format == PhoneDigits {
		return mask.Digits(phone)
	}
	return phone
}

func parseEmployeeCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}
