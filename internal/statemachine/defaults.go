package statemachine

// Built-in sync domains, seeded at construction. These mirror the mobile
// clients' offline status models: changing an edge here changes what synced
// devices are allowed to report.

// DomainTask governs guard task assignments.
const DomainTask = "task"

// DomainTicket governs incident/service tickets.
const DomainTicket = "ticket"

// DomainAttendance governs attendance verification records.
const DomainAttendance = "attendance"

func registerBuiltins(r *Registry) {
	r.RegisterDomain(DomainTask, taskTransitions(), PolicyStrict, "ASSIGNED")
	r.RegisterDomain(DomainTicket, ticketTransitions(), PolicyStrict, "NEW")
	r.RegisterDomain(DomainAttendance, attendanceTransitions(), PolicyWorkflow, "PENDING")
}

func taskTransitions() []Transition {
	return []Transition{
		{From: "ASSIGNED", To: "INPROGRESS", Description: "Start working on task"},
		{From: "ASSIGNED", To: "STANDBY", Description: "Put assigned task on standby"},
		{From: "INPROGRESS", To: "STANDBY", Description: "Pause task"},
		{From: "INPROGRESS", To: "PARTIALLYCOMPLETED", Description: "Partially complete task"},
		{From: "INPROGRESS", To: "COMPLETED", Description: "Complete task"},
		{From: "STANDBY", To: "INPROGRESS", Description: "Resume task"},
		{From: "STANDBY", To: "ASSIGNED", Description: "Return task to assigned"},
		{From: "PARTIALLYCOMPLETED", To: "INPROGRESS", Description: "Continue partially completed task"},
		{From: "PARTIALLYCOMPLETED", To: "COMPLETED", Description: "Finish partially completed task"},
		{From: "PARTIALLYCOMPLETED", To: "STANDBY", Description: "Put partially completed task on standby"},
		{From: "COMPLETED", To: "STANDBY", Description: "Reopen completed task"},
	}
}

func ticketTransitions() []Transition {
	return []Transition{
		{From: "NEW", To: "OPEN", Description: "Open new ticket"},
		{From: "NEW", To: "CANCELLED", Description: "Cancel new ticket"},
		{From: "OPEN", To: "INPROGRESS", Description: "Start working on ticket"},
		{From: "OPEN", To: "ONHOLD", Description: "Put ticket on hold"},
		{From: "OPEN", To: "CANCELLED", Description: "Cancel open ticket"},
		{From: "INPROGRESS", To: "ONHOLD", Description: "Put ticket on hold"},
		{From: "INPROGRESS", To: "RESOLVED", Description: "Resolve ticket"},
		{From: "INPROGRESS", To: "CANCELLED", Description: "Cancel in-progress ticket"},
		{From: "ONHOLD", To: "INPROGRESS", Description: "Resume ticket"},
		{From: "RESOLVED", To: "CLOSED", Description: "Close resolved ticket"},
		{From: "RESOLVED", To: "OPEN", Description: "Reopen resolved ticket"},
	}
}

func attendanceTransitions() []Transition {
	return []Transition{
		{From: "PENDING", To: "VERIFIED", Description: "Verify attendance"},
		{From: "PENDING", To: "REJECTED", Description: "Reject attendance"},
		{From: "REJECTED", To: "CORRECTED", Description: "Submit corrected attendance"},
		{From: "CORRECTED", To: "VERIFIED", Description: "Verify corrected attendance"},
	}
}
