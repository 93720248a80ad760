package auth

const (
	RoleHR         = "HR"
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleStaff      = "STAFF"
)

const (
	PermPayrollUpload     = "payroll.upload"
	PermPayrollExport     = "payroll.export"
	PermPayslipRead       = "payslip.read"
	PermStaffImport       = "staff.import"
	PermJobsImport        = "jobs.import"
	PermRecruitmentApply  = "recruitment.apply"
	PermRecruitmentRank   = "recruitment.rank"
	PermSystemMetricsRead = "system.metrics.read"
)

var DefaultPermissions = []string{
	PermPayrollUpload,
	PermPayrollExport,
	PermPayslipRead,
	PermStaffImport,
	PermJobsImport,
	PermRecruitmentApply,
	PermRecruitmentRank,
	PermSystemMetricsRead,
}

var RolePermissions = map[string][]string{
	RoleStaff: {
		PermPayslipRead,
		PermRecruitmentApply,
	},
	RoleHR: {
		PermPayrollUpload,
		PermPayrollExport,
		PermPayslipRead,
		PermStaffImport,
		PermJobsImport,
		PermRecruitmentRank,
	},
	RoleSuperAdmin: {
		PermPayrollUpload,
		PermPayrollExport,
		PermPayslipRead,
		PermStaffImport,
		PermJobsImport,
		PermRecruitmentRank,
		PermSystemMetricsRead,
	},
}

// IsPayrollAdmin reports whether the role may see every staff member's
// payroll artifacts inside its tenant.
func IsPayrollAdmin(roleName string) bool {
	return roleName == RoleHR || roleName == RoleSuperAdmin
}
