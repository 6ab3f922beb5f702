package person

import "time"

// Status values follow the Vietnamese COVID classification: F0 infected,
// F1 close contact, F2 contact of F1, F3 contact of F2.
const (
	StatusF0 = "F0"
	StatusF1 = "F1"
	StatusF2 = "F2"
	StatusF3 = "F3"
)

var validStatuses = map[string]bool{
	StatusF0: true,
	StatusF1: true,
	StatusF2: true,
	StatusF3: true,
}

type Person struct {
	ID                  int64      `json:"id"`
	UserID              *int64     `json:"user_id,omitempty"`
	FullName            string     `json:"full_name"`
	IDNumber            string     `json:"id_number"`
	BirthYear           *int       `json:"birth_year,omitempty"`
	Status              string     `json:"status"`
	ProvinceID          *int64     `json:"province_id,omitempty"`
	ProvinceName        *string    `json:"province_name,omitempty"`
	DistrictID          *int64     `json:"district_id,omitempty"`
	DistrictName        *string    `json:"district_name,omitempty"`
	WardID              *int64     `json:"ward_id,omitempty"`
	WardName            *string    `json:"ward_name,omitempty"`
	TreatmentLocationID *int64     `json:"treatment_location_id,omitempty"`
	TreatmentLocation   *string    `json:"treatment_location,omitempty"`
	RelatedPersonID     *int64     `json:"related_person_id,omitempty"`
	RelatedPersonName   *string    `json:"related_person_name,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// CreateInput carries everything needed to register a tracked person.
type CreateInput struct {
	UserID              *int64
	FullName            string
	IDNumber            string
	BirthYear           *int
	Status              string
	ProvinceID          *int64
	DistrictID          *int64
	WardID              *int64
	TreatmentLocationID *int64
	RelatedPersonID     *int64
}

// UpdateInput mirrors CreateInput minus the immutable id number.
type UpdateInput struct {
	FullName            string
	BirthYear           *int
	Status              string
	ProvinceID          *int64
	DistrictID          *int64
	WardID              *int64
	TreatmentLocationID *int64
	RelatedPersonID     *int64
}

type ListFilter struct {
	Status string
	Search string
	Page   int
	Limit  int
}
