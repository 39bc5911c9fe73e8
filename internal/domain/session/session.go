package session

import (
	"strings"
	"time"
	"unicode"
)

// Channel identifies the origin of a session copy.
type Channel string

const (
	ChannelWeb      Channel = "web"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelAPI      Channel = "api"
)

// TTL returns the channel-dependent session lifetime.
func (c Channel) TTL() time.Duration {
	switch c {
	case ChannelWhatsApp:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Valid reports whether the channel is a known value.
func (c Channel) Valid() bool {
	switch c {
	case ChannelWeb, ChannelWhatsApp, ChannelAPI:
		return true
	}
	return false
}

// Step is the conversational/process position within a session.
type Step string

const (
	StepLanguageSelection     Step = "language_selection"
	StepMainMenu              Step = "main_menu"
	StepCurrencySelection     Step = "currency_selection"
	StepPaymentMethod         Step = "payment_method_selection"
	StepCategoryBrowse        Step = "category_browse"
	StepSubcategoryBrowse     Step = "subcategory_browse"
	StepSeriesBrowse          Step = "series_browse"
	StepProductBrowse         Step = "product_browse"
	StepPackageBrowse         Step = "package_browse"
	StepFirstName             Step = "first_name"
	StepLastName              Step = "last_name"
	StepNationalID            Step = "national_id"
	StepEmployerName          Step = "employer_name"
	StepMonthlySalary         Step = "monthly_salary"
	StepConfirmation          Step = "confirmation"
	StepCashCurrencySelection Step = "cash_currency_selection"
	StepCashTypeSelection     Step = "cash_type_selection"
	StepStatusCheck           Step = "status_check"
	StepResumeCode            Step = "resume_code"
	StepIdleContinue          Step = "idle_continue"
	StepSurveyQuestion        Step = "survey_question"
	StepCompleted             Step = "completed"
)

// InitialStep is where every new or reset session begins.
const InitialStep = StepLanguageSelection

var stepVocabulary = map[Step]struct{}{
	StepLanguageSelection:     {},
	StepMainMenu:              {},
	StepCurrencySelection:     {},
	StepPaymentMethod:         {},
	StepCategoryBrowse:        {},
	StepSubcategoryBrowse:     {},
	StepSeriesBrowse:          {},
	StepProductBrowse:         {},
	StepPackageBrowse:         {},
	StepFirstName:             {},
	StepLastName:              {},
	StepNationalID:            {},
	StepEmployerName:          {},
	StepMonthlySalary:         {},
	StepConfirmation:          {},
	StepCashCurrencySelection: {},
	StepCashTypeSelection:     {},
	StepStatusCheck:           {},
	StepResumeCode:            {},
	StepIdleContinue:          {},
	StepSurveyQuestion:        {},
	StepCompleted:             {},
}

// KnownStep reports whether s is a member of the step vocabulary.
func KnownStep(s Step) bool {
	_, ok := stepVocabulary[s]
	return ok
}

// ValidateStep coerces an arbitrary string into the step vocabulary.
// Unknown values map to the initial step, never to an invalid one.
func ValidateStep(raw string) Step {
	s := Step(strings.TrimSpace(strings.ToLower(raw)))
	if KnownStep(s) {
		return s
	}
	return InitialStep
}

// Session is one channel-bound, time-limited record of an in-progress
// application. FormData and Metadata are always written whole; partial
// updates would lose sibling fields.
type Session struct {
	ID                   int64      `json:"id"`
	SessionID            string     `json:"sessionId"`
	Channel              Channel    `json:"channel"`
	UserIdentifier       string     `json:"userIdentifier"`
	CurrentStep          Step       `json:"currentStep"`
	FormData             Document   `json:"formData"`
	Metadata             Document   `json:"metadata"`
	ReferenceCode        *string    `json:"referenceCode,omitempty"`
	ReferenceCodeExpires *time.Time `json:"referenceCodeExpiresAt,omitempty"`
	ExpiresAt            time.Time  `json:"expiresAt"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// SessionIDFor builds the channel-prefixed session identity key.
func SessionIDFor(channel Channel, userIdentifier string) string {
	return string(channel) + ":" + userIdentifier
}

// Expired reports whether the session is past its TTL.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

const maxIdentifierLen = 64

// SanitizeIdentifier restricts a user identifier to a safe character set
// and length. Channel prefixes and formatting are stripped by callers.
func SanitizeIdentifier(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if b.Len() >= maxIdentifierLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '+' || r == '@' || r == '.' || r == ':' || r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ScrubControlChars removes control characters from a string leaf,
// keeping newlines and tabs.
func ScrubControlChars(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, raw)
}
