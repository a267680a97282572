package idcard

import (
	"errors"
	"time"
)

// Application statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var (
	ErrNotFound      = errors.New("id card not found")
	ErrInvalidStatus = errors.New("invalid status")
	ErrPhotoRequired = errors.New("photo is required")
)

// PersonalDetails is the student-identity half of an application.
type PersonalDetails struct {
	Name         string `json:"name" validate:"required"`
	Gender       string `json:"gender" validate:"required,oneof=Male Female Other"`
	DOB          string `json:"dob" validate:"required"`
	Category     string `json:"category" validate:"required,oneof=General OBC SC ST"`
	BloodGroup   string `json:"bloodGroup,omitempty"`
	FatherName   string `json:"fatherName" validate:"required"`
	MotherName   string `json:"motherName" validate:"required"`
	Address      string `json:"address" validate:"required"`
	MobileNumber string `json:"mobileNumber" validate:"required"`
}

// AcademicDetails is the course half of an application.
type AcademicDetails struct {
	Course           string `json:"course" validate:"required"`
	Session          string `json:"session" validate:"required"`
	AdmissionDate    string `json:"admissionDate" validate:"required"`
	AdmissionNumber  string `json:"admissionNumber,omitempty"`
	EnrollmentNumber string `json:"enrollmentNumber" validate:"required"`
}

// Uploads are the asset references attached to an application.
type Uploads struct {
	Photo     string `json:"photo,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// Card is one student's ID-card application. One per student.
type Card struct {
	ID              string          `json:"id"`
	StudentID       string          `json:"student"`
	Personal        PersonalDetails `json:"personalDetails"`
	Academic        AcademicDetails `json:"academicDetails"`
	Uploads         Uploads         `json:"uploads"`
	Status          string          `json:"status"`
	RejectionReason *string         `json:"rejectionReason,omitempty"`
	ApprovalDate    *time.Time      `json:"approvalDate,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Institution is the singleton issuing-institution profile printed on cards.
type Institution struct {
	Name               string    `json:"name"`
	Address            string    `json:"address,omitempty"`
	SealImage          string    `json:"sealImage,omitempty"`
	PrincipalSignature string    `json:"principalSignature,omitempty"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
