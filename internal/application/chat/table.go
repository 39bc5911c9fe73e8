package chat

import "github.com/intake-hub/intake-hub/internal/domain/session"

// transition is one entry of the static transition table: the next step
// plus the derived fields the input contributes to the data bag.
type transition struct {
	Next   session.Step
	Enrich session.Document
}

// greetingTokens unconditionally reset any in-progress session back to
// the initial step, regardless of current step. Checked before every
// table lookup.
var greetingTokens = map[string]struct{}{
	"hi":      {},
	"hie":     {},
	"hello":   {},
	"hey":     {},
	"menu":    {},
	"start":   {},
	"restart": {},
}

// staticTable maps each table-driven step's normalized inputs to a
// transition. Loaded once; read-only afterwards.
var staticTable = map[session.Step]map[string]transition{
	session.StepLanguageSelection: {
		"1": {Next: session.StepMainMenu, Enrich: session.Document{"language": "english"}},
		"2": {Next: session.StepMainMenu, Enrich: session.Document{"language": "shona"}},
		"3": {Next: session.StepMainMenu, Enrich: session.Document{"language": "ndebele"}},
	},
	session.StepMainMenu: {
		"1": {Next: session.StepCurrencySelection, Enrich: session.Document{"intent": "ssb_loan"}},
		"2": {Next: session.StepCurrencySelection, Enrich: session.Document{"intent": "zb_loan"}},
		"3": {Next: session.StepCashCurrencySelection, Enrich: session.Document{"intent": "cash_purchase"}},
		"4": {Next: session.StepStatusCheck},
		"5": {Next: session.StepResumeCode},
	},
	session.StepCurrencySelection: {
		"1": {Next: session.StepPaymentMethod, Enrich: session.Document{"currency": "USD"}},
		"2": {Next: session.StepPaymentMethod, Enrich: session.Document{"currency": "ZWG"}},
	},
	session.StepPaymentMethod: {
		"1": {Next: session.StepCategoryBrowse, Enrich: session.Document{"paymentMethod": "cash"}},
		"2": {Next: session.StepCategoryBrowse, Enrich: session.Document{"paymentMethod": "ecocash"}},
		"3": {Next: session.StepCategoryBrowse, Enrich: session.Document{"paymentMethod": "bank_transfer"}},
	},
	session.StepCashCurrencySelection: {
		"1": {Next: session.StepCashTypeSelection, Enrich: session.Document{"currency": "USD"}},
		"2": {Next: session.StepCashTypeSelection, Enrich: session.Document{"currency": "ZWG"}},
	},
	session.StepCashTypeSelection: {
		"1": {Next: session.StepCompleted, Enrich: session.Document{"cashType": "grocery"}},
		"2": {Next: session.StepCompleted, Enrich: session.Document{"cashType": "fuel"}},
		"3": {Next: session.StepCompleted, Enrich: session.Document{"cashType": "building_supplies"}},
	},
	session.StepConfirmation: {
		"1":   {Next: session.StepCompleted},
		"yes": {Next: session.StepCompleted},
		"2":   {Next: session.StepMainMenu},
		"no":  {Next: session.StepMainMenu},
	},
	session.StepIdleContinue: {
		// "1" resumes the step stashed in metadata; handled in the engine
		// because the target is dynamic.
		"2": {Next: session.StepSurveyQuestion},
	},
}

// freeTextSpec declares a step that accepts input verbatim into a named
// field and advances unconditionally.
type freeTextSpec struct {
	Field string
	Next  session.Step
}

var freeTextSteps = map[session.Step]freeTextSpec{
	session.StepFirstName:      {Field: "firstName", Next: session.StepLastName},
	session.StepLastName:       {Field: "lastName", Next: session.StepNationalID},
	session.StepNationalID:     {Field: "nationalId", Next: session.StepEmployerName},
	session.StepEmployerName:   {Field: "employerName", Next: session.StepMonthlySalary},
	session.StepMonthlySalary:  {Field: "monthlySalary", Next: session.StepConfirmation},
	session.StepSurveyQuestion: {Field: "surveyFeedback", Next: session.StepCompleted},
}

// catalogSteps are the dynamic browse sub-flows, with their id prefix
// and where the reserved back token returns to.
type catalogSpec struct {
	Prefix string
	Back   session.Step
}

var catalogSteps = map[session.Step]catalogSpec{
	session.StepCategoryBrowse:    {Prefix: "cat_", Back: session.StepMainMenu},
	session.StepSubcategoryBrowse: {Prefix: "sub_", Back: session.StepCategoryBrowse},
	session.StepSeriesBrowse:      {Prefix: "ser_", Back: session.StepSubcategoryBrowse},
	session.StepProductBrowse:     {Prefix: "prod_", Back: session.StepSeriesBrowse},
	session.StepPackageBrowse:     {Prefix: "pkg_", Back: session.StepProductBrowse},
}

const backToken = "back"
