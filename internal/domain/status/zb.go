package status

// ZB bank product workflow statuses.
const (
	ZBSubmitted                Status = "SUBMITTED"
	ZBAccountVerification      Status = "ACCOUNT_VERIFICATION"
	ZBVerified                 Status = "VERIFIED"
	ZBVerificationFailed       Status = "VERIFICATION_FAILED"
	ZBAwaitingResubmission     Status = "AWAITING_RESUBMISSION"
	ZBPendingApproval          Status = "PENDING_APPROVAL"
	ZBDocumentsRequested       Status = "DOCUMENTS_REQUESTED"
	ZBApprovedAwaitingDelivery Status = "APPROVED_AWAITING_DELIVERY"
	ZBDelivered                Status = "DELIVERED"
	ZBRejected                 Status = "REJECTED"
	ZBCancelled                Status = "CANCELLED"
)

// ZB governs the bank account product line.
var ZB = NewMachine(LineZB, ZBSubmitted, map[Status]Info{
	ZBSubmitted: {
		Message:    "Your application has been received.",
		Successors: []Status{ZBAccountVerification, ZBCancelled},
	},
	ZBAccountVerification: {
		Message:    "Your account details are being verified with the bank.",
		Successors: []Status{ZBVerified, ZBVerificationFailed, ZBCancelled},
	},
	ZBVerified: {
		Message:    "Account verified. Your application is moving to approval.",
		Successors: []Status{ZBPendingApproval, ZBCancelled},
	},
	ZBVerificationFailed: {
		Message:    "Your account details could not be verified.",
		Successors: []Status{ZBAwaitingResubmission, ZBCancelled},
	},
	ZBAwaitingResubmission: {
		Message:        "Please resubmit your account details.",
		RequiresAction: true,
		ActionRequired: "resubmit_account_details",
		Successors:     []Status{ZBAccountVerification, ZBCancelled},
	},
	ZBPendingApproval: {
		Message:    "Your application is awaiting final approval.",
		Successors: []Status{ZBApprovedAwaitingDelivery, ZBRejected, ZBDocumentsRequested},
	},
	ZBDocumentsRequested: {
		Message:        "Additional documents are required to complete your application.",
		RequiresAction: true,
		ActionRequired: "upload_documents",
		Successors:     []Status{ZBPendingApproval, ZBCancelled},
	},
	ZBApprovedAwaitingDelivery: {
		Message:    "Approved. Your order is being prepared for delivery.",
		Successors: []Status{ZBDelivered},
	},
	ZBDelivered: {
		Message:  "Delivered. Thank you for your business.",
		Terminal: true,
	},
	ZBRejected: {
		Message:  "Your application was not successful.",
		Terminal: true,
	},
	ZBCancelled: {
		Message:  "This application was cancelled.",
		Terminal: true,
	},
})
