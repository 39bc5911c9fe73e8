package chat

import (
	"fmt"
	"strings"

	"github.com/intake-hub/intake-hub/internal/domain/session"
	"github.com/intake-hub/intake-hub/internal/domain/status"
)

const (
	msgRestart        = "Something went wrong with your session. Please send 'hi' to restart."
	msgCompletedNudge = "This session is complete. Send 'hi' to start a new application."
	msgCodeNotFound   = "That reference code was not found or has expired. Please check it and try again."
	msgResumed        = "Welcome back. Your application has been restored."
	msgNoStatusYet    = "Your application has been received but no status is available yet."
)

// promptFor renders the single outbound message describing the step the
// session has just arrived at.
func (e *Engine) promptFor(sess *session.Session) OutboundMessage {
	switch sess.CurrentStep {
	case session.StepLanguageSelection:
		return OutboundMessage{Body: "Welcome! Please choose a language:\n1. English\n2. Shona\n3. Ndebele"}

	case session.StepMainMenu:
		return OutboundMessage{
			Body: "What would you like to do?",
			Sections: []ListSection{{
				Title: "Main menu",
				Rows: []ListRow{
					{ID: "1", Title: "Apply for a salary loan"},
					{ID: "2", Title: "Open a bank product"},
					{ID: "3", Title: "Cash purchase"},
					{ID: "4", Title: "Check application status"},
					{ID: "5", Title: "Resume with a code"},
				},
			}},
		}

	case session.StepCurrencySelection, session.StepCashCurrencySelection:
		return OutboundMessage{
			Body: "Which currency would you like to use?",
			Buttons: []Button{
				{ID: "1", Title: "USD"},
				{ID: "2", Title: "ZWG"},
			},
		}

	case session.StepPaymentMethod:
		return OutboundMessage{
			Body: "How would you like to pay your installments?",
			Buttons: []Button{
				{ID: "1", Title: "Cash"},
				{ID: "2", Title: "EcoCash"},
				{ID: "3", Title: "Bank transfer"},
			},
		}

	case session.StepCashTypeSelection:
		return OutboundMessage{
			Body: "What kind of cash purchase?",
			Buttons: []Button{
				{ID: "1", Title: "Grocery"},
				{ID: "2", Title: "Fuel"},
				{ID: "3", Title: "Building supplies"},
			},
		}

	case session.StepCategoryBrowse:
		rows := make([]ListRow, 0)
		for _, c := range e.catalog.Categories() {
			rows = append(rows, ListRow{ID: "cat_" + c.ID, Title: c.Name})
		}
		return OutboundMessage{
			Body:     "Choose a business category, or reply 'back':",
			Sections: []ListSection{{Title: "Categories", Rows: rows}},
		}

	case session.StepSubcategoryBrowse:
		rows := make([]ListRow, 0)
		for _, s := range e.catalog.Subcategories(sess.FormData.GetString("selectedCategory", "")) {
			rows = append(rows, ListRow{ID: "sub_" + s.ID, Title: s.Name})
		}
		return OutboundMessage{
			Body:     "Choose a subcategory, or reply 'back':",
			Sections: []ListSection{{Title: "Subcategories", Rows: rows}},
		}

	case session.StepSeriesBrowse:
		rows := make([]ListRow, 0)
		for _, s := range e.catalog.SeriesFor(sess.FormData.GetString("selectedSubcategory", "")) {
			rows = append(rows, ListRow{ID: "ser_" + s.ID, Title: s.Name})
		}
		return OutboundMessage{
			Body:     "Choose a product range, or reply 'back':",
			Sections: []ListSection{{Title: "Ranges", Rows: rows}},
		}

	case session.StepProductBrowse:
		rows := make([]ListRow, 0)
		for _, p := range e.catalog.Products(sess.FormData.GetString("selectedSeries", "")) {
			rows = append(rows, ListRow{
				ID:          "prod_" + p.ID,
				Title:       p.Name,
				Description: fmt.Sprintf("%.2f %s", p.Price, sess.FormData.GetString("currency", "USD")),
			})
		}
		return OutboundMessage{
			Body:     "Choose a product, or reply 'back':",
			Sections: []ListSection{{Title: "Products", Rows: rows}},
		}

	case session.StepPackageBrowse:
		rows := make([]ListRow, 0)
		for _, p := range e.catalog.Packages(sess.FormData.GetString("selectedProduct", "")) {
			rows = append(rows, ListRow{
				ID:          "pkg_" + p.ID,
				Title:       p.Name,
				Description: fmt.Sprintf("%d months, %.0f%% deposit", p.Months, p.Deposit),
			})
		}
		return OutboundMessage{
			Body:     "Choose a payment plan, or reply 'back':",
			Sections: []ListSection{{Title: "Plans", Rows: rows}},
		}

	case session.StepFirstName:
		return OutboundMessage{Body: "What is your first name?"}
	case session.StepLastName:
		return OutboundMessage{Body: "And your surname?"}
	case session.StepNationalID:
		return OutboundMessage{Body: "Please enter your national ID number (e.g. 63-123456A70)."}
	case session.StepEmployerName:
		return OutboundMessage{Body: "Who is your employer?"}
	case session.StepMonthlySalary:
		return OutboundMessage{Body: "What is your net monthly salary?"}

	case session.StepConfirmation:
		return OutboundMessage{
			Body: e.renderSummary(sess),
			Buttons: []Button{
				{ID: "1", Title: "Yes, submit"},
				{ID: "2", Title: "No, start over"},
			},
		}

	case session.StepStatusCheck:
		return OutboundMessage{Body: "Please reply with your application reference code."}
	case session.StepResumeCode:
		return OutboundMessage{Body: "Please reply with your resume code, or type it as 'resume <code>' on the web."}

	case session.StepIdleContinue:
		return OutboundMessage{
			Body: "You have an application in progress. Would you like to continue?",
			Buttons: []Button{
				{ID: "1", Title: "Continue"},
				{ID: "2", Title: "Finish up"},
			},
		}

	case session.StepSurveyQuestion:
		return OutboundMessage{Body: "Before you go: how was your experience today? Your feedback helps us improve."}

	case session.StepCompleted:
		return OutboundMessage{Body: e.renderCompleted(sess)}
	}

	return OutboundMessage{Body: msgRestart}
}

// invalidInput re-prompts the current step without transitioning.
func (e *Engine) invalidInput(sess *session.Session) OutboundMessage {
	prompt := e.promptFor(sess)
	prompt.Body = "Sorry, I did not understand that.\n" + prompt.Body
	return prompt
}

// notFound is the catalog variant of an invalid input.
func (e *Engine) notFound(sess *session.Session) OutboundMessage {
	prompt := e.promptFor(sess)
	prompt.Body = "That option was not found. Please reselect.\n" + prompt.Body
	return prompt
}

func (e *Engine) renderSummary(sess *session.Session) string {
	d := sess.FormData
	var b strings.Builder
	b.WriteString("Please confirm your application:\n")
	fmt.Fprintf(&b, "Name: %s %s\n", d.GetString("firstName", "-"), d.GetString("lastName", "-"))
	fmt.Fprintf(&b, "National ID: %s\n", d.GetString("nationalId", "-"))
	fmt.Fprintf(&b, "Employer: %s\n", d.GetString("employerName", "-"))
	fmt.Fprintf(&b, "Product: %s (%s)\n", d.GetString("selectedProductName", "-"), d.GetString("selectedCategoryName", "-"))
	fmt.Fprintf(&b, "Amount: %.2f %s over %.0f months\n", d.GetFloat("loanAmount", 0), d.GetString("currency", "USD"), d.GetFloat("loanPeriodMonths", 0))
	b.WriteString("Submit this application?")
	return b.String()
}

func (e *Engine) renderCompleted(sess *session.Session) string {
	d := sess.FormData
	if d.GetString("intent", "") == "cash_purchase" {
		link := e.links.CashPurchaseLink(d.GetString("currency", ""), d.GetString("cashType", ""))
		return "Complete your cash purchase here:\n" + link
	}
	var b strings.Builder
	b.WriteString("Thank you. Your application has been submitted.\n")
	if code := d.GetString("referenceCode", ""); code != "" {
		fmt.Fprintf(&b, "Your reference code is %s. Use it to check status or continue on the web:\n", code)
		b.WriteString(e.links.ApplicationLink(
			d.GetString("intent", ""),
			d.GetString("currency", ""),
			d.GetString("paymentMethod", ""),
			d.GetString("selectedCategory", ""),
			d.GetString("selectedSubcategory", ""),
		))
	}
	return b.String()
}

func renderDetails(d status.Details) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s\n%s", d.Status, d.Message)
	if d.RequiresAction && d.ActionRequired != nil {
		fmt.Fprintf(&b, "\nAction required: %s", strings.ReplaceAll(*d.ActionRequired, "_", " "))
	}
	return b.String()
}
