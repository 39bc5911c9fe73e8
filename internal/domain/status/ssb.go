package status

// SSB loan workflow statuses.
const (
	SSBSubmitted                Status = "SUBMITTED"
	SSBCreditCheckInProgress    Status = "CREDIT_CHECK_IN_PROGRESS"
	SSBCreditCheckGood          Status = "CREDIT_CHECK_GOOD"
	SSBCreditCheckPoor          Status = "CREDIT_CHECK_POOR"
	SSBInvalidID                Status = "INVALID_ID"
	SSBAwaitingIDCorrection     Status = "AWAITING_ID_CORRECTION"
	SSBInsufficientSalary       Status = "INSUFFICIENT_SALARY"
	SSBAwaitingPeriodAdjustment Status = "AWAITING_PERIOD_ADJUSTMENT"
	SSBContractExpiring         Status = "CONTRACT_EXPIRING"
	SSBAwaitingContractDecision Status = "AWAITING_CONTRACT_DECISION"
	SSBPendingApproval          Status = "PENDING_APPROVAL"
	SSBDocumentsRequested       Status = "DOCUMENTS_REQUESTED"
	SSBApprovedAwaitingDelivery Status = "APPROVED_AWAITING_DELIVERY"
	SSBDelivered                Status = "DELIVERED"
	SSBRejected                 Status = "REJECTED"
	SSBAwaitingBlacklistReport  Status = "AWAITING_BLACKLIST_DECISION"
	SSBBlacklistReportRequested Status = "BLACKLIST_REPORT_REQUESTED"
	SSBClosed                   Status = "CLOSED"
	SSBCancelled                Status = "CANCELLED"
)

// SSB governs the salary-serviced loan line. Rejected is terminal but
// carries a compensating edge into the blacklist-report decision so a
// declined applicant can still buy their credit report.
var SSB = NewMachine(LineSSB, SSBSubmitted, map[Status]Info{
	SSBSubmitted: {
		Message:    "Your application has been received and is queued for review.",
		Successors: []Status{SSBCreditCheckInProgress, SSBCancelled},
	},
	SSBCreditCheckInProgress: {
		Message: "Your credit record is being checked.",
		Successors: []Status{
			SSBCreditCheckGood, SSBCreditCheckPoor, SSBInvalidID,
			SSBInsufficientSalary, SSBContractExpiring, SSBCancelled,
		},
	},
	SSBCreditCheckGood: {
		Message:    "Credit check passed. Your application is moving to approval.",
		Successors: []Status{SSBPendingApproval, SSBCancelled},
	},
	SSBCreditCheckPoor: {
		Message:    "Your credit record did not meet the lending requirements.",
		Successors: []Status{SSBRejected},
	},
	SSBInvalidID: {
		Message:    "The national ID supplied could not be verified.",
		Successors: []Status{SSBAwaitingIDCorrection, SSBCancelled},
	},
	SSBAwaitingIDCorrection: {
		Message:        "Please resubmit a corrected national ID number.",
		RequiresAction: true,
		ActionRequired: "resubmit_national_id",
		Successors:     []Status{SSBCreditCheckInProgress, SSBCancelled},
	},
	SSBInsufficientSalary: {
		Message:    "Your salary does not support the requested repayment period.",
		Successors: []Status{SSBAwaitingPeriodAdjustment},
	},
	SSBAwaitingPeriodAdjustment: {
		Message:        "A longer repayment period has been recommended. Please accept or decline.",
		RequiresAction: true,
		ActionRequired: "accept_recommended_period",
		Successors:     []Status{SSBPendingApproval, SSBCancelled},
	},
	SSBContractExpiring: {
		Message:    "Your employment contract expires within the requested repayment period.",
		Successors: []Status{SSBAwaitingContractDecision},
	},
	SSBAwaitingContractDecision: {
		Message:        "Please confirm whether to proceed with a shorter repayment period.",
		RequiresAction: true,
		ActionRequired: "confirm_shorter_period",
		Successors:     []Status{SSBPendingApproval, SSBCancelled},
	},
	SSBPendingApproval: {
		Message:    "Your application is awaiting final approval.",
		Successors: []Status{SSBApprovedAwaitingDelivery, SSBRejected, SSBDocumentsRequested},
	},
	SSBDocumentsRequested: {
		Message:        "Additional documents are required to complete your application.",
		RequiresAction: true,
		ActionRequired: "upload_documents",
		Successors:     []Status{SSBPendingApproval, SSBCancelled},
	},
	SSBApprovedAwaitingDelivery: {
		Message:    "Approved. Your order is being prepared for delivery.",
		Successors: []Status{SSBDelivered},
	},
	SSBDelivered: {
		Message:  "Delivered. Thank you for your business.",
		Terminal: true,
	},
	SSBRejected: {
		Message:    "Your application was not successful.",
		Terminal:   true,
		Successors: []Status{SSBAwaitingBlacklistReport},
	},
	SSBAwaitingBlacklistReport: {
		Message:        "You may request a paid credit report showing the reason for the decline.",
		RequiresAction: true,
		ActionRequired: "decide_blacklist_report",
		Successors:     []Status{SSBBlacklistReportRequested, SSBClosed},
	},
	SSBBlacklistReportRequested: {
		Message:    "Your credit report has been requested. Payment is being processed.",
		Successors: []Status{SSBClosed},
	},
	SSBClosed: {
		Message:  "This application is closed.",
		Terminal: true,
	},
	SSBCancelled: {
		Message:  "This application was cancelled.",
		Terminal: true,
	},
})
