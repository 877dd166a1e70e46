package models

import "time"

// Gated entity type tags as carried by approval requests.
const (
	EntityEnquiry      = "enquiry"
	EntityRegistration = "registration"
	EntityEnrollment   = "enrollment"
)

// EnquiryStatus represents the lifecycle of a lead.
type EnquiryStatus string

const (
	EnquiryStatusNew       EnquiryStatus = "New"
	EnquiryStatusConverted EnquiryStatus = "Converted"
	EnquiryStatusClosed    EnquiryStatus = "Closed"
)

// Enquiry is an initial lead record for a prospective student.
type Enquiry struct {
	ID               string        `db:"id" json:"id"`
	CandidateName    string        `db:"candidate_name" json:"candidate_name"`
	CourseInterested string        `db:"course_interested" json:"course_interested"`
	Mobile           string        `db:"mobile" json:"mobile"`
	Email            string        `db:"email" json:"email"`
	FatherName       string        `db:"father_name" json:"father_name"`
	SchoolName       string        `db:"school_name" json:"school_name"`
	Status           EnquiryStatus `db:"status" json:"status"`
	CompanyID        string        `db:"company_id" json:"company_id"`
	CreatedBy        *string       `db:"created_by" json:"created_by"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
}

// Registration is a student who registered with the consultancy.
type Registration struct {
	ID             string    `db:"id" json:"id"`
	RegistrationNo string    `db:"registration_no" json:"registration_no"`
	StudentName    string    `db:"student_name" json:"student_name"`
	Mobile         string    `db:"mobile" json:"mobile"`
	Email          string    `db:"email" json:"email"`
	FatherName     string    `db:"father_name" json:"father_name"`
	Course         string    `db:"course" json:"course"`
	CompanyID      string    `db:"company_id" json:"company_id"`
	CreatedBy      *string   `db:"created_by" json:"created_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "Active"
	EnrollmentStatusCompleted EnrollmentStatus = "Completed"
	EnrollmentStatusCancelled EnrollmentStatus = "Cancelled"
)

// Enrollment captures a registered student's admission to a programme.
type Enrollment struct {
	ID          string           `db:"id" json:"id"`
	StudentName string           `db:"student_name" json:"student_name"`
	ProgramName string           `db:"program_name" json:"program_name"`
	TotalFees   float64          `db:"total_fees" json:"total_fees"`
	Status      EnrollmentStatus `db:"status" json:"status"`
	CompanyID   string           `db:"company_id" json:"company_id"`
	CreatedBy   *string          `db:"created_by" json:"created_by"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// OwnedStudents lists the enquiries and registrations a staff member created.
type OwnedStudents struct {
	Enquiries     []Enquiry      `json:"enquiries"`
	Registrations []Registration `json:"registrations"`
}
