package domain

import "time"

const (
	RoleAdmin     = "admin"
	RoleOrganizer = "organizer"
	RoleUser      = "user"
)

const (
	AccountActive  = "active"
	AccountBlocked = "blocked"
)

type AdminAccount struct {
	ID           int64     `json:"admin_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type OrganizerAccount struct {
	ID           int64     `json:"organizer_account_id"`
	Email        string    `json:"email"`
	Phone        *string   `json:"phone"`
	PasswordHash string    `json:"-"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a *OrganizerAccount) Login() string {
	if a.Email != "" {
		return a.Email
	}
	if a.Phone != nil {
		return *a.Phone
	}
	return ""
}

type UserAccount struct {
	ID           int64     `json:"user_id"`
	Email        *string   `json:"email"`
	Phone        *string   `json:"phone"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a *UserAccount) Login() string {
	if a.Email != nil && *a.Email != "" {
		return *a.Email
	}
	if a.Phone != nil {
		return *a.Phone
	}
	return ""
}

// ResolvedAccount is the role-agnostic view used by login. Resolution
// order across the three tables is admin, then organizer, then user;
// the same login existing in two tables resolves to the earlier one.
type ResolvedAccount struct {
	Role         string
	ID           int64
	Login        string
	PasswordHash string
	Status       string
}

type OrganizerProfile struct {
	ID            int64     `json:"organizer_id"`
	AccountID     int64     `json:"organizer_account_id"`
	LogoURL       *string   `json:"logo_url"`
	DisplayName   string    `json:"display_name"`
	Phone         *string   `json:"phone"`
	Telegram      *string   `json:"telegram"`
	Whatsapp      *string   `json:"whatsapp"`
	WebsiteURL    *string   `json:"website_url"`
	AddressText   *string   `json:"address_text"`
	ContactPerson *string   `json:"contact_person"`
	AboutText     *string   `json:"about_text"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	OrgTypeLegalEntity  = "legal_entity"
	OrgTypeIP           = "ip"
	OrgTypeSelfEmployed = "self_employed"
	OrgTypeIndividual   = "individual"
)

type OrganizerDetails struct {
	ID               int64   `json:"legal_details_id"`
	ProfileID        int64   `json:"-"`
	ShortLegalName   string  `json:"short_legal_name"`
	FullLegalName    string  `json:"full_legal_name"`
	LegalAddress     string  `json:"legal_address"`
	INN              string  `json:"inn"`
	OGRN             *string `json:"ogrn"`
	KPP              *string `json:"kpp"`
	OrgType          string  `json:"org_type"`
	RegistrationDate *string `json:"registration_date"`
	HeadFullName     *string `json:"head_full_name"`
	HeadPosition     *string `json:"head_position"`
	OKVED            *string `json:"okved"`
	OKOPF            *string `json:"okopf"`
	OPFName          *string `json:"opf_name"`
}
