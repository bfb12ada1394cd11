package suitecrm

// Standard SuiteCRM module names.
const (
	ModuleAccounts      = "Accounts"
	ModuleBugs          = "Bugs"
	ModuleCalendar      = "Calendar"
	ModuleCalls         = "Calls"
	ModuleCases         = "Cases"
	ModuleCampaigns     = "Campaigns"
	ModuleContacts      = "Contacts"
	ModuleDocuments     = "Documents"
	ModuleEmail         = "Email"
	ModuleEmails        = "Emails"
	ModuleEmployees     = "Employees"
	ModuleLeads         = "Leads"
	ModuleLists         = "Lists"
	ModuleMeetings      = "Meetings"
	ModuleNotes         = "Notes"
	ModuleOpportunities = "Opportunities"
	ModuleProjects      = "Projects"
	ModuleSpots         = "Spots"
	ModuleSurveys       = "Surveys"
	ModuleTarget        = "Target"
	ModuleTargets       = "Targets"
	ModuleTasks         = "Tasks"
	ModuleTemplates     = "Templates"
)

// StandardModuleNames lists the modules exposed by StandardModules.
func StandardModuleNames() []string {
	return []string{
		ModuleAccounts,
		ModuleBugs,
		ModuleCalendar,
		ModuleCalls,
		ModuleCases,
		ModuleCampaigns,
		ModuleContacts,
		ModuleDocuments,
		ModuleEmail,
		ModuleEmails,
		ModuleEmployees,
		ModuleLeads,
		ModuleLists,
		ModuleMeetings,
		ModuleNotes,
		ModuleOpportunities,
		ModuleProjects,
		ModuleSpots,
		ModuleSurveys,
		ModuleTarget,
		ModuleTargets,
		ModuleTasks,
		ModuleTemplates,
	}
}
