package expense

import (
	"math"
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// IsTerminal reports whether no further transitions are permitted.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

type StepStatus string

const (
	StepPending  StepStatus = "PENDING"
	StepApproved StepStatus = "APPROVED"
	StepRejected StepStatus = "REJECTED"
)

type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleAdmin    Role = "ADMIN"
	RoleFinance  Role = "FINANCE"
	RoleDirector Role = "DIRECTOR"
	RoleCFO      Role = "CFO"
)

var validRoles = map[Role]bool{
	RoleEmployee: true,
	RoleManager:  true,
	RoleAdmin:    true,
	RoleFinance:  true,
	RoleDirector: true,
	RoleCFO:      true,
}

func (r Role) IsValid() bool { return validRoles[r] }

type Category string

const (
	CategoryTravel         Category = "TRAVEL"
	CategoryMeals          Category = "MEALS"
	CategoryAccommodation  Category = "ACCOMMODATION"
	CategoryTransport      Category = "TRANSPORT"
	CategoryEntertainment  Category = "ENTERTAINMENT"
	CategoryOfficeSupplies Category = "OFFICE_SUPPLIES"
	CategoryTraining       Category = "TRAINING"
	CategoryClientMeeting  Category = "CLIENT_MEETING"
	CategoryOther          Category = "OTHER"
)

// Categories lists every valid expense category, in a stable order.
func Categories() []Category {
	return []Category{
		CategoryTravel,
		CategoryMeals,
		CategoryAccommodation,
		CategoryTransport,
		CategoryEntertainment,
		CategoryOfficeSupplies,
		CategoryTraining,
		CategoryClientMeeting,
		CategoryOther,
	}
}

func (c Category) IsValid() bool {
	for _, v := range Categories() {
		if c == v {
			return true
		}
	}
	return false
}

// ApprovalStep is one role-gated step of the approval chain. Steps are
// 1-indexed by Step; the chain itself lives in Expense.Approvals.
type ApprovalStep struct {
	Step         int        `json:"step"`
	ApproverID   string     `json:"approver_id"`
	ApproverRole Role       `json:"approver_role"`
	Status       StepStatus `json:"status"`
	Comments     string     `json:"comments,omitempty"`
	ActedAt      *time.Time `json:"acted_at,omitempty"`
}

// RulesDescriptor records how the chain was built. Informational only, the
// engine never evaluates it.
type RulesDescriptor struct {
	Type        string `json:"type"` // SEQUENTIAL, MANAGER_ONLY, DIRECTOR_ONLY
	Description string `json:"description,omitempty"`
}

// OCRData is receipt data extracted upstream; carried opaquely with the
// expense, never interpreted by the workflow engine.
type OCRData struct {
	ExtractedAmount      float64    `json:"extracted_amount,omitempty"`
	ExtractedDate        *time.Time `json:"extracted_date,omitempty"`
	MerchantName         string     `json:"merchant_name,omitempty"`
	ExtractedCategory    string     `json:"extracted_category,omitempty"`
	ExtractedDescription string     `json:"extracted_description,omitempty"`
	Confidence           float64    `json:"confidence,omitempty"`
	RawText              string     `json:"raw_text,omitempty"`
	ProcessedAt          time.Time  `json:"processed_at,omitempty"`
}

// Expense is the mutable aggregate. The approval chain and rule history are
// stored as JSON columns so one Save is the per-row atomic write the
// workflow relies on; every mutation path locks the row first (see uow).
type Expense struct {
	// Internal numeric PK
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	// Public identifier (32-char lowercase hex)
	ExpenseID  string `gorm:"column:expense_id;type:char(32);not null;uniqueIndex:ux_expenses_expense_id_active" json:"expense_id"`
	EmployeeID string `gorm:"column:employee_id;type:char(32);not null;index:idx_expenses_employee" json:"employee_id"`
	CompanyID  string `gorm:"column:company_id;type:char(32);not null;index:idx_expenses_company_status" json:"company_id"`

	Amount          float64 `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	Currency        string  `gorm:"column:currency;type:char(3);not null" json:"currency"`
	ConvertedAmount float64 `gorm:"column:converted_amount;type:decimal(18,2);not null" json:"converted_amount"`
	ConversionRate  float64 `gorm:"column:conversion_rate;type:decimal(18,6);not null" json:"conversion_rate"`

	Category    Category  `gorm:"column:category;size:32;not null;index" json:"category"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Date        time.Time `gorm:"column:expense_date;not null" json:"date"`
	ReceiptURL  string    `gorm:"column:receipt_url;type:text" json:"receipt_url,omitempty"`
	OCRData     *OCRData  `gorm:"column:ocr_data;type:json;serializer:json" json:"ocr_data,omitempty"`

	Status Status `gorm:"column:status;size:16;not null;index:idx_expenses_company_status" json:"status"`

	Approvals           []ApprovalStep `gorm:"column:approvals;type:json;serializer:json" json:"approvals"`
	CurrentApprovalStep int            `gorm:"column:current_approval_step;not null;default:0" json:"current_approval_step"`
	TotalApprovalSteps  int            `gorm:"column:total_approval_steps;not null;default:0" json:"total_approval_steps"`
	// Denormalized from Approvals[CurrentApprovalStep].ApproverRole so the
	// pending-for-role query stays a plain indexed WHERE.
	CurrentApproverRole Role `gorm:"column:current_approver_role;size:16;index" json:"-"`

	ApprovalRules    RulesDescriptor   `gorm:"column:approval_rules;type:json;serializer:json" json:"approval_rules"`
	ConditionalRules []ConditionalRule `gorm:"column:conditional_rules;type:json;serializer:json" json:"conditional_rules,omitempty"`
	RulesEvaluated   []RuleEvaluation  `gorm:"column:rules_evaluated;type:json;serializer:json" json:"rules_evaluated,omitempty"`

	FinalApprovedBy string     `gorm:"column:final_approved_by;type:char(32)" json:"final_approved_by,omitempty"`
	FinalRejectedBy string     `gorm:"column:final_rejected_by;type:char(32)" json:"final_rejected_by,omitempty"`
	FinalActionAt   *time.Time `gorm:"column:final_action_at" json:"final_action_at,omitempty"`
	FinalComments   string     `gorm:"column:final_comments;size:500" json:"final_comments,omitempty"`

	StatusUpdatedAt time.Time      `gorm:"column:status_updated_at" json:"status_updated_at"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
	DeletedBy       *string        `gorm:"column:deleted_by;type:char(32)" json:"-"`
}

func (Expense) TableName() string { return "expenses" }

// CurrentStep returns the step the expense is waiting on, or nil when the
// chain is empty or the cursor has run past the end.
func (e *Expense) CurrentStep() *ApprovalStep {
	if e.CurrentApprovalStep < 0 || e.CurrentApprovalStep >= len(e.Approvals) {
		return nil
	}
	return &e.Approvals[e.CurrentApprovalStep]
}

// ApprovedSteps counts chain steps already approved.
func (e *Expense) ApprovedSteps() int {
	n := 0
	for _, s := range e.Approvals {
		if s.Status == StepApproved {
			n++
		}
	}
	return n
}

// ApprovalPercentage is approved/total*100 rounded to the nearest integer.
// Zero when the chain has not been built.
func (e *Expense) ApprovalPercentage() int {
	total := e.TotalApprovalSteps
	if total == 0 {
		total = len(e.Approvals)
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(e.ApprovedSteps()) / float64(total) * 100))
}

// HasActedStep reports whether any approver has already acted on the chain.
func (e *Expense) HasActedStep() bool {
	for _, s := range e.Approvals {
		if s.Status != StepPending {
			return true
		}
	}
	return false
}
