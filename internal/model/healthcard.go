package model

import "time"

type EmergencyContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type HealthCard struct {
	ID                string           `json:"id"`
	UserID            string           `json:"userId"`
	CardNumber        string           `json:"healthCardNumber"`
	Name              string           `json:"name"`
	IDCard            string           `json:"idCard"`
	Phone             string           `json:"phone"`
	Email             string           `json:"email,omitempty"`
	DateOfBirth       string           `json:"dateOfBirth"`
	Gender            string           `json:"gender"`
	Address           string           `json:"address"`
	BloodGroup        string           `json:"bloodGroup,omitempty"`
	OrganizationName  string           `json:"organizationName,omitempty"`
	EmployeeID        string           `json:"employeeId,omitempty"`
	EmergencyContact  EmergencyContact `json:"emergencyContact"`
	MedicalConditions string           `json:"medicalConditions,omitempty"`
	Allergies         string           `json:"allergies,omitempty"`
	IssueDate         time.Time        `json:"issueDate"`
	ValidUntil        time.Time        `json:"validity"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}
